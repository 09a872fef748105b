package collab

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherStopWaitsForInFlightCallback(t *testing.T) {
	d := NewDispatcher()

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	d.Dispatch(func() {
		close(entered)
		<-release
		finished.Store(true)
	})

	<-entered
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	// Stop is called from outside the dispatch goroutine and must block
	// until the running callback returns.
	d.Stop()
	assert.True(t, finished.Load(), "Stop returned while a callback was still running")
}

func TestDispatcherDropsAfterStop(t *testing.T) {
	d := NewDispatcher()
	d.Stop()

	var fired atomic.Bool
	d.Dispatch(func() { fired.Store(true) })

	time.Sleep(20 * time.Millisecond)
	assert.False(t, fired.Load(), "no callback may run after Stop returns")
}

func TestDispatcherStopIsIdempotent(t *testing.T) {
	d := NewDispatcher()
	d.Stop()
	d.Stop()
}
