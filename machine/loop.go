package machine

import (
	"context"
	"sync/atomic"
	"time"
)

// Loop runs tasks one at a time on a single goroutine. Everything that
// touches the board, sequencer or interpreter goes through it.
type Loop struct {
	tasks chan func()
	done  chan struct{}

	// deferred is only touched from the loop goroutine.
	deferred []func()
}

// NewLoop creates a Loop. Tasks do not run until Run is called.
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), 1000),
		done:  make(chan struct{}),
	}
}

// Post queues fn to run on the loop. It is safe to call from any
// goroutine, and is a no-op once the loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Call runs fn on the loop and waits for it, and anything it defers, to
// finish. It returns false if the loop stopped first. Call must not be
// used from the loop itself.
func (l *Loop) Call(fn func()) bool {
	ch := make(chan struct{})
	l.Post(fn)
	l.Post(func() { close(ch) })
	select {
	case <-ch:
		return true
	case <-l.done:
		return false
	}
}

// Defer queues fn to run after the current task returns, before any
// other posted task. It must only be called from the loop.
func (l *Loop) Defer(fn func()) { l.deferred = append(l.deferred, fn) }

// After posts fn to the loop once d has elapsed. The returned func
// cancels it; after cancel returns fn will not run.
func (l *Loop) After(d time.Duration, fn func()) func() {
	var cancelled int32
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if atomic.LoadInt32(&cancelled) == 0 {
				fn()
			}
		})
	})
	return func() {
		atomic.StoreInt32(&cancelled, 1)
		t.Stop()
	}
}

func (l *Loop) run(fn func()) {
	fn()
	for len(l.deferred) > 0 {
		next := l.deferred[0]
		l.deferred = l.deferred[1:]
		next()
	}
}

// Run processes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			l.run(fn)
		}
	}
}

// RunPending runs queued tasks until none are left, on the calling
// goroutine. It is meant for tests and must not be mixed with Run.
func (l *Loop) RunPending() {
	for {
		select {
		case fn := <-l.tasks:
			l.run(fn)
		default:
			return
		}
	}
}
