// Package publish pushes fleet snapshots to external systems.
package publish

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/metro-telemetry/internal/metrics"
	"github.com/ukydev/metro-telemetry/internal/models"
)

// Sink receives every snapshot the dispatcher forwards to it.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snap *models.FleetSnapshot) error
	Close() error
}

type sinkWorker struct {
	sink     Sink
	queue    chan *models.FleetSnapshot
	counters *metrics.SinkCounters
}

// Dispatcher fans snapshots out to sinks. Each sink has its own bounded queue so a slow
// sink only loses its own frames.
type Dispatcher struct {
	workers []*sinkWorker
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. timeout bounds a single Publish call.
func NewDispatcher(queueSize int, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := &Dispatcher{timeout: timeout}
	for _, s := range sinks {
		d.workers = append(d.workers, &sinkWorker{
			sink:     s,
			queue:    make(chan *models.FleetSnapshot, queueSize),
			counters: metrics.Sink(s.Name()),
		})
	}
	return d
}

// Len is the number of sinks.
func (d *Dispatcher) Len() int { return len(d.workers) }

// Dispatch enqueues snap for every sink without blocking. Full queues drop the frame.
func (d *Dispatcher) Dispatch(snap *models.FleetSnapshot) {
	for _, w := range d.workers {
		select {
		case w.queue <- snap:
		default:
			w.counters.Drops.Add(1)
		}
	}
}

// Run starts the sink workers and forwards snapshots from in until in is closed or ctx is
// done. It then publishes what is still queued and closes every sink.
func (d *Dispatcher) Run(ctx context.Context, in <-chan *models.FleetSnapshot) {
	for _, w := range d.workers {
		d.wg.Add(1)
		go d.work(ctx, w)
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case snap, ok := <-in:
			if !ok {
				break loop
			}
			d.Dispatch(snap)
		}
	}

	for _, w := range d.workers {
		close(w.queue)
	}
	d.wg.Wait()

	for _, w := range d.workers {
		if err := w.sink.Close(); err != nil {
			log.WithError(err).WithField("sink", w.sink.Name()).Warn("Failed to close sink")
		}
	}
}

func (d *Dispatcher) work(ctx context.Context, w *sinkWorker) {
	defer d.wg.Done()
	// Frames still queued at shutdown are published; only the per-call timeout bounds them.
	base := context.WithoutCancel(ctx)
	for snap := range w.queue {
		pctx, cancel := context.WithTimeout(base, d.timeout)
		err := w.sink.Publish(pctx, snap)
		cancel()
		if err != nil {
			w.counters.Failures.Add(1)
			log.WithFields(log.Fields{
				"sink":     w.sink.Name(),
				"sequence": snap.Sequence,
				"error":    err,
			}).Warn("Failed to publish snapshot")
			continue
		}
		w.counters.Published.Add(1)
	}
}
