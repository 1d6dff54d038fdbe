package timer

import (
	"context"
	"sync"
	"time"
)

// Task runs a function repeatedly until it returns false or is stopped.
// The next run is armed only after the previous one returns, so runs never overlap.
type Task struct {
	interval time.Duration
	fn       func(ctx context.Context) bool

	wake chan struct{}
	done chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewTask creates a task; call Start to begin running it
func NewTask(interval time.Duration, fn func(ctx context.Context) bool) *Task {
	return &Task{
		interval: interval,
		fn:       fn,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Schedule creates and starts a task in one call
func Schedule(ctx context.Context, interval time.Duration, fn func(ctx context.Context) bool) *Task {
	t := NewTask(interval, fn)
	t.Start(ctx)
	return t
}

// Start runs fn immediately and then every interval. Calling it twice is a no-op.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, t.cancel = context.WithCancel(ctx)
	go t.loop(ctx)
}

func (t *Task) loop(ctx context.Context) {
	defer close(t.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-t.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		if !t.fn(ctx) || ctx.Err() != nil {
			return
		}
		timer.Reset(t.interval)
	}
}

// Trigger runs fn as soon as the current run finishes instead of waiting for the interval
func (t *Task) Trigger() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Stop cancels the task and waits for an in-progress run to return.
// It must not be called from inside fn.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-t.done
}

// Done is closed once the task has stopped
func (t *Task) Done() <-chan struct{} {
	return t.done
}
