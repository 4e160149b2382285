package homing

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-homing/internal/queue"
	"github.com/arloliu/go-homing/internal/task"
	"github.com/arloliu/go-homing/logger"
)

// LogTimeFormat is the layout of the timestamp in LogLine.String.
const LogTimeFormat = "15:04:05.0000"

// LogLine is one timestamped human-readable trace line.
type LogLine struct {
	Time    time.Time
	Message string
}

// String returns the line as "15:04:05.0000: message".
func (l LogLine) String() string {
	return l.Time.Format(LogTimeFormat) + ": " + l.Message
}

// LogHandler receives trace lines in the order they were emitted.
//
// Handlers run on a dedicated goroutine, never on the goroutine calling Home.
type LogHandler func(line LogLine)

// tracer queues trace lines and fans them out to the handlers from one worker,
// so emitting never blocks the sequencer.
type tracer struct {
	clock    func() time.Time
	queue    queue.Queue[LogLine]
	notify   chan struct{}
	handlers *xsync.MapOf[uint64, LogHandler]
	nextID   atomic.Uint64
	closed   atomic.Bool
	taskMgr  *task.Manager
	logger   logger.Logger
}

func newTracer(clock func() time.Time, l logger.Logger) *tracer {
	t := &tracer{
		clock:    clock,
		queue:    queue.NewLockFreeQueue[LogLine](),
		notify:   make(chan struct{}, 1),
		handlers: xsync.NewMapOf[uint64, LogHandler](),
		taskMgr:  task.NewManager(context.Background(), l),
		logger:   l,
	}

	// the manager is fresh, Start cannot fail
	_ = t.taskMgr.Start("traceWorker", t.loop)

	return t
}

func (t *tracer) add(h LogHandler) (remove func()) {
	id := t.nextID.Add(1)
	t.handlers.Store(id, h)

	return func() { t.handlers.Delete(id) }
}

func (t *tracer) emit(msg string) {
	if t.closed.Load() {
		t.logger.Debug("trace line dropped after close", "message", msg)
		return
	}

	t.queue.Enqueue(LogLine{Time: t.clock(), Message: msg})

	select {
	case t.notify <- struct{}{}:
	default:
	}
}

func (t *tracer) loop(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		t.drain()
		return false
	case <-t.notify:
		t.drain()
		return true
	}
}

func (t *tracer) drain() {
	for {
		line, ok := t.queue.Dequeue()
		if !ok {
			return
		}

		t.handlers.Range(func(_ uint64, h LogHandler) bool {
			t.invoke(h, line)
			return true
		})
	}
}

func (t *tracer) invoke(h LogHandler, line LogLine) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("panic in log handler", "panic", r)
		}
	}()

	h(line)
}

// close delivers the queued lines and stops the worker.
func (t *tracer) close() {
	if !t.closed.CompareAndSwap(false, true) {
		return
	}

	t.taskMgr.Stop()
	t.taskMgr.Wait()

	// the worker may exit between iterations without draining
	t.drain()
}
