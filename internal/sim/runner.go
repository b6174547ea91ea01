package sim

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/metro-telemetry/internal/metrics"
	"github.com/ukydev/metro-telemetry/internal/models"
)

// Runner advances a FleetEngine on a fixed cadence and fans each new snapshot out to
// subscribers. It is the only caller of FleetEngine.Advance in a running process.
type Runner struct {
	fleet    *FleetEngine
	interval time.Duration

	mu     sync.Mutex
	subs   map[int]chan *models.FleetSnapshot
	nextID int
}

func NewRunner(fleet *FleetEngine, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{
		fleet:    fleet,
		interval: interval,
		subs:     make(map[int]chan *models.FleetSnapshot),
	}
}

// Interval is the tick cadence.
func (r *Runner) Interval() time.Duration { return r.interval }

// Latest returns the most recent snapshot.
func (r *Runner) Latest() *models.FleetSnapshot {
	return r.fleet.Latest()
}

// Lines returns the configured lines.
func (r *Runner) Lines() []models.Line {
	out := make([]models.Line, 0, len(r.fleet.lines))
	for _, l := range r.fleet.lines {
		out = append(out, l.Line())
	}
	return out
}

// Run ticks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.WithFields(log.Fields{
		"interval": r.interval.String(),
		"lines":    len(r.fleet.lines),
	}).Info("Simulation runner started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Simulation runner stopped")
			return
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick advances the fleet once and broadcasts the result.
func (r *Runner) Tick() *models.FleetSnapshot {
	snap := r.fleet.Advance()
	metrics.SimulationTicks.Add(1)
	log.WithFields(log.Fields{
		"sequence": snap.Sequence,
		"vehicles": snap.System.ActiveVehicles,
		"tunnel":   snap.System.VehiclesInTunnel,
	}).Debug("Fleet advanced")
	r.broadcast(snap)
	return snap
}

// Subscribe returns a channel that always holds the freshest snapshot not yet received.
// Slow readers miss intermediate frames instead of stalling the runner. The returned func
// unsubscribes and closes the channel.
func (r *Runner) Subscribe() (<-chan *models.FleetSnapshot, func()) {
	ch := make(chan *models.FleetSnapshot, 1)

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers is the number of active subscriptions.
func (r *Runner) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func (r *Runner) broadcast(snap *models.FleetSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// replace the stale frame
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
