package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(interval time.Duration) (*Runner, *ManualClock) {
	clock := NewManualClock(epoch)
	f := NewFleetEngine(twoLines(), DefaultParams(), clock, WithSeed(5))
	return NewRunner(f, interval), clock
}

func TestRunner_SubscriberReceivesTick(t *testing.T) {
	r, clock := newTestRunner(time.Second)
	ch, cancel := r.Subscribe()
	defer cancel()

	clock.Advance(time.Second)
	snap := r.Tick()

	select {
	case got := <-ch:
		assert.Same(t, snap, got)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	assert.Same(t, snap, r.Latest())
}

func TestRunner_SlowSubscriberGetsFreshestFrame(t *testing.T) {
	r, clock := newTestRunner(time.Second)
	ch, cancel := r.Subscribe()
	defer cancel()

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		r.Tick()
	}

	got := <-ch
	assert.Equal(t, uint64(3), got.Sequence)
	select {
	case extra := <-ch:
		t.Fatalf("stale frame left in mailbox: %d", extra.Sequence)
	default:
	}
}

func TestRunner_Unsubscribe(t *testing.T) {
	r, clock := newTestRunner(time.Second)
	ch, cancel := r.Subscribe()
	require.Equal(t, 1, r.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, r.Subscribers())

	_, open := <-ch
	assert.False(t, open)

	clock.Advance(time.Second)
	assert.NotPanics(t, func() { r.Tick() })
}

func TestRunner_RunUntilCancelled(t *testing.T) {
	r, _ := newTestRunner(10 * time.Millisecond)
	ch, unsubscribe := r.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case snap := <-ch:
		assert.NotNil(t, snap)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not tick")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_DefaultInterval(t *testing.T) {
	r, _ := newTestRunner(0)
	assert.Equal(t, time.Second, r.Interval())
	assert.Len(t, r.Lines(), 2)
}
