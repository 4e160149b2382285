package queue

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineItem struct {
	Seq  int
	Text string
}

func TestLockFreeQueue(t *testing.T) {
	assert := assert.New(t)

	t.Run("Empty Queue", func(t *testing.T) {
		q := NewLockFreeQueue[lineItem]()

		assert.True(q.IsEmpty())
		assert.Equal(0, q.Length())

		item, ok := q.Dequeue()
		assert.False(ok)
		assert.Equal(lineItem{}, item)
	})

	t.Run("FIFO order", func(t *testing.T) {
		q := NewLockFreeQueue[lineItem]()

		q.Enqueue(lineItem{1, "Beginning home"})
		q.Enqueue(lineItem{2, "Homed"})
		assert.False(q.IsEmpty())
		assert.Equal(2, q.Length())

		item, ok := q.Dequeue()
		assert.True(ok)
		assert.Equal("Beginning home", item.Text)
		assert.Equal(1, q.Length())

		item, ok = q.Dequeue()
		assert.True(ok)
		assert.Equal("Homed", item.Text)
		assert.True(q.IsEmpty())

		_, ok = q.Dequeue()
		assert.False(ok)
	})

	t.Run("Concurrent producers keep per-producer order", func(t *testing.T) {
		q := NewLockFreeQueue[lineItem]()

		const producers = 8
		const perProducer = 500

		var wg sync.WaitGroup
		for p := 0; p < producers; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < perProducer; i++ {
					q.Enqueue(lineItem{Seq: p*perProducer + i})
				}
			}(p)
		}
		wg.Wait()

		require.Equal(t, producers*perProducer, q.Length())

		last := make(map[int]int)
		seen := make([]int, 0, producers*perProducer)
		for {
			item, ok := q.Dequeue()
			if !ok {
				break
			}
			p := item.Seq / perProducer
			if prev, ok := last[p]; ok {
				assert.Greater(item.Seq, prev)
			}
			last[p] = item.Seq
			seen = append(seen, item.Seq)
		}

		sort.Ints(seen)
		for i, v := range seen {
			assert.Equal(i, v)
		}
	})

	t.Run("Concurrent producers and consumers", func(t *testing.T) {
		q := NewLockFreeQueue[int]()

		var wg sync.WaitGroup
		for i := 0; i < 1000; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				q.Enqueue(i)
			}(i)
		}

		var mu sync.Mutex
		total := 0
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					if _, ok := q.Dequeue(); ok {
						mu.Lock()
						total++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		assert.Equal(1000, total+q.Length())
	})
}
