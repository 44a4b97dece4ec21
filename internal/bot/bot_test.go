package bot

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDrainWaitsForRunningHandlers(t *testing.T) {
	b := &Bot{logger: zerolog.Nop()}

	assert.True(t, b.beginHandler())

	drained := make(chan struct{})
	go func() {
		b.drain()
		close(drained)
	}()

	select {
	case <-drained:
		t.Fatal("drain returned while a handler was running")
	case <-time.After(20 * time.Millisecond):
	}

	b.wg.Done()

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not return")
	}
}

func TestBeginHandlerRefusedAfterDrain(t *testing.T) {
	b := &Bot{logger: zerolog.Nop()}

	b.drain()
	assert.False(t, b.beginHandler())

	// Nothing was added, so a second drain returns immediately
	b.drain()
}
