package machine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoop_Defer(t *testing.T) {
	l := NewLoop()
	var order []string

	l.Post(func() {
		l.Defer(func() {
			order = append(order, "deferred")
			l.Defer(func() { order = append(order, "nested") })
		})
		order = append(order, "first")
	})
	l.Post(func() { order = append(order, "second") })
	l.RunPending()

	assert.Equal(t, []string{"first", "deferred", "nested", "second"}, order)
}

func TestLoop_Run(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	var n int
	assert.True(t, l.Call(func() { n++ }))
	assert.Equal(t, 1, n)

	fired := make(chan struct{})
	l.After(time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not fire")
	}

	cancel()
	assert.Equal(t, context.Canceled, <-errCh)

	// stopped loops drop work instead of blocking
	assert.False(t, l.Call(func() { n++ }))
	assert.Equal(t, 1, n)
}

func TestLoop_AfterCancel(t *testing.T) {
	l := NewLoop()
	var fired bool
	stop := l.After(time.Millisecond, func() { fired = true })
	stop()

	time.Sleep(20 * time.Millisecond)
	l.RunPending()
	assert.False(t, fired)
}
