package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ukydev/metro-telemetry/internal/metrics"
	"github.com/ukydev/metro-telemetry/internal/models"
)

// MockSink is a mock implementation of Sink
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSink) Publish(ctx context.Context, snap *models.FleetSnapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockSink) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newMockSink(name string) *MockSink {
	s := new(MockSink)
	s.On("Name").Return(name).Maybe()
	return s
}

func feed(snaps ...*models.FleetSnapshot) <-chan *models.FleetSnapshot {
	ch := make(chan *models.FleetSnapshot, len(snaps))
	for _, s := range snaps {
		ch <- s
	}
	close(ch)
	return ch
}

func TestDispatcher_FansOutToEverySink(t *testing.T) {
	first := &models.FleetSnapshot{Sequence: 1}
	second := &models.FleetSnapshot{Sequence: 2}

	a := newMockSink("fanout-a")
	b := newMockSink("fanout-b")
	for _, s := range []*MockSink{a, b} {
		s.On("Publish", mock.Anything, first).Return(nil).Once()
		s.On("Publish", mock.Anything, second).Return(nil).Once()
		s.On("Close").Return(nil).Once()
	}

	d := NewDispatcher(4, time.Second, a, b)
	d.Run(context.Background(), feed(first, second))

	a.AssertExpectations(t)
	b.AssertExpectations(t)
	assert.Equal(t, int64(2), metrics.Sink("fanout-a").Published.Load())
}

func TestDispatcher_CountsFailures(t *testing.T) {
	snap := &models.FleetSnapshot{Sequence: 7}
	s := newMockSink("failing")
	s.On("Publish", mock.Anything, snap).Return(errors.New("broker down")).Once()
	s.On("Close").Return(errors.New("already closed")).Once()

	d := NewDispatcher(1, time.Second, s)
	d.Run(context.Background(), feed(snap))

	s.AssertExpectations(t)
	assert.Equal(t, int64(1), metrics.Sink("failing").Failures.Load())
	assert.Zero(t, metrics.Sink("failing").Published.Load())
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	s := newMockSink("slow")
	d := NewDispatcher(1, time.Second, s)

	for i := 0; i < 3; i++ {
		d.Dispatch(&models.FleetSnapshot{Sequence: uint64(i)})
	}

	assert.Equal(t, int64(2), metrics.Sink("slow").Drops.Load())
	assert.Equal(t, 1, d.Len())
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	s := newMockSink("cancelled")
	s.On("Close").Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan *models.FleetSnapshot)
	done := make(chan struct{})
	go func() {
		NewDispatcher(1, time.Second, s).Run(ctx, in)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
	s.AssertExpectations(t)
}

func TestDispatcher_FlushesQueuedFramesOnShutdown(t *testing.T) {
	snaps := make([]*models.FleetSnapshot, 4)
	in := make(chan *models.FleetSnapshot, len(snaps))
	for i := range snaps {
		snaps[i] = &models.FleetSnapshot{Sequence: uint64(i + 1)}
		in <- snaps[i]
	}

	started := make(chan struct{})
	release := make(chan struct{})
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })

	s := newMockSink("draining")
	s.On("Publish", mock.Anything, snaps[0]).Run(func(args mock.Arguments) {
		close(started)
		<-release
		assert.NoError(t, args.Get(0).(context.Context).Err(), "in-flight publish must survive shutdown")
	}).Return(nil).Once()
	for _, snap := range snaps[1:] {
		s.On("Publish", live, snap).Return(nil).Once()
	}
	s.On("Close").Return(nil).Once()

	d := NewDispatcher(8, time.Second, s)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx, in)
	}()

	<-started
	assert.Eventually(t, func() bool { return len(d.workers[0].queue) == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
	s.AssertExpectations(t)
	assert.Equal(t, int64(4), metrics.Sink("draining").Published.Load())
	assert.Zero(t, metrics.Sink("draining").Failures.Load())
}
