package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_EmitsOnlySettledValue(t *testing.T) {
	d := NewDebouncer[string](100 * time.Millisecond)
	defer d.Stop()

	for _, v := range []string{"b", "ba", "bat"} {
		d.Push(v)
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case got := <-d.Out():
		assert.Equal(t, "bat", got)
	case <-time.After(time.Second):
		t.Fatal("debouncer never emitted")
	}

	select {
	case got := <-d.Out():
		t.Fatalf("unexpected second emission %q", got)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	d := NewDebouncer[int](30 * time.Millisecond)
	defer d.Stop()

	d.Push(1)
	require.Equal(t, 1, <-d.Out())

	d.Push(2)
	d.Push(3)
	require.Equal(t, 3, <-d.Out())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer[string](50 * time.Millisecond)
	d.Push("pending")
	d.Stop()

	_, ok := <-d.Out()
	assert.False(t, ok, "Out is closed without emitting the pending value")

	// Push after Stop must not block
	done := make(chan struct{})
	go func() {
		d.Push("late")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Push blocked after Stop")
	}
}
