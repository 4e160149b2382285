// Package task manages the goroutines owned by transports and sequencers.
//
// Every goroutine the module starts goes through a Manager so that it can be
// cancelled with Stop and joined with Wait; nothing is fire-and-forget.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-homing/logger"
)

// ErrStopped is returned when a task is started on a stopped Manager.
var ErrStopped = errors.New("task: manager stopped")

// LoopFunc is one iteration of a looping task.
// It should return true to continue running the task, or false to stop the goroutine.
type LoopFunc func(ctx context.Context) bool

// Func is a one-shot task body. ctx is cancelled when the Manager stops.
type Func func(ctx context.Context)

// Manager manages the lifecycle of goroutines (tasks).
//
// It uses a context.Context to signal cancellation and a sync.WaitGroup to join
// the goroutines in Wait. After Wait returns the Manager can be reused.
//
// Example Usage:
//
//	mgr := task.NewManager(ctx, logger)
//
//	_ = mgr.Start("readLoop", func(ctx context.Context) bool {
//	    // ... one iteration ...
//	    return true
//	})
//
//	mgr.Stop()
//	mgr.Wait()
type Manager struct {
	pctx   context.Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
	mu     sync.RWMutex // protects ctx and cancel
	taskMu sync.RWMutex // blocks task creation during Wait()
}

// NewManager creates a new Manager with ctx as the parent context.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	if l == nil {
		l = logger.GetLogger()
	}

	mgr := &Manager{pctx: ctx, logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

func (mgr *Manager) context() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Start starts a looping task. loop is called repeatedly until it returns false
// or the Manager is stopped.
func (mgr *Manager) Start(name string, loop LoopFunc) error {
	return mgr.Go(name, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if !mgr.callWithRecoverBool(name, func() bool { return loop(ctx) }) {
				return
			}
		}
	})
}

// Go starts a one-shot task.
func (mgr *Manager) Go(name string, fn Func) error {
	mgr.taskMu.RLock()
	defer mgr.taskMu.RUnlock()

	ctx := mgr.context()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: cannot start %s", ErrStopped, name)
	default:
	}

	mgr.logger.Debug("start task", "name", name)

	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer func() {
			mgr.count.Add(-1)
			mgr.wg.Done()
			mgr.logger.Debug("task terminated", "name", name, "taskCount", mgr.Count())
		}()

		mgr.callWithRecover(name, func() { fn(ctx) })
	}()

	return nil
}

// Stop signals all running tasks to stop. It does not wait for them.
func (mgr *Manager) Stop() {
	mgr.mu.Lock()
	if mgr.cancel != nil {
		mgr.cancel()
	}
	mgr.mu.Unlock()
}

// Wait waits for all tasks to terminate, then re-arms the Manager so new tasks
// can be started.
func (mgr *Manager) Wait() {
	mgr.taskMu.Lock()
	defer mgr.taskMu.Unlock()

	mgr.wg.Wait()

	mgr.mu.Lock()
	if mgr.ctx.Err() != nil {
		mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	}
	mgr.mu.Unlock()
}

// Count returns the number of currently running tasks.
func (mgr *Manager) Count() int {
	return int(mgr.count.Load())
}

func (mgr *Manager) callWithRecover(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
		}
	}()

	fn()
}

func (mgr *Manager) callWithRecoverBool(name string, fn func() bool) bool {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
		}
	}()

	return fn()
}
