package sim

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ukydev/metro-telemetry/internal/models"
)

// FleetEngine runs one LineEngine per line and produces fleet snapshots.
type FleetEngine struct {
	mu      sync.Mutex
	clock   Clock
	lines   []*LineEngine
	lineIDs []string
	seq     uint64
	latest  atomic.Pointer[models.FleetSnapshot]
}

// Option customizes a FleetEngine.
type Option func(*fleetOptions)

type fleetOptions struct {
	seed    int64
	randFor func(lineIndex int) Rand
}

// WithSeed sets the base seed; line i draws from a generator seeded with seed+i.
func WithSeed(seed int64) Option {
	return func(o *fleetOptions) { o.seed = seed }
}

// WithRandSource overrides the generator given to each line.
func WithRandSource(fn func(lineIndex int) Rand) Option {
	return func(o *fleetOptions) { o.randFor = fn }
}

// NewFleetEngine builds the fleet and captures an initial snapshot without advancing it.
func NewFleetEngine(lines []models.Line, params Params, clock Clock, opts ...Option) *FleetEngine {
	o := fleetOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.randFor == nil {
		o.randFor = func(i int) Rand { return NewRand(o.seed + int64(i)) }
	}

	f := &FleetEngine{clock: clock}
	for i, line := range lines {
		f.lines = append(f.lines, NewLineEngine(line, params, clock, o.randFor(i)))
		f.lineIDs = append(f.lineIDs, line.ID)
	}
	f.latest.Store(f.capture(clock.Now()))
	return f
}

// Advance moves the fleet forward by the time elapsed since the previous advance and
// publishes the result as the latest snapshot. When the clock has not moved, nothing is
// advanced and the cached snapshot is returned, so concurrent callers in the same time slice
// share one advance.
func (f *FleetEngine) Advance() *models.FleetSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock.Now()
	if prev := f.latest.Load(); !now.After(prev.System.Timestamp) {
		return prev
	}
	for _, l := range f.lines {
		l.Advance(now)
	}
	f.seq++
	snap := f.capture(now)
	f.latest.Store(snap)
	return snap
}

// Latest returns the most recent snapshot. It never advances the simulation.
func (f *FleetEngine) Latest() *models.FleetSnapshot {
	return f.latest.Load()
}

// Lines returns the engine for each configured line, in configuration order.
func (f *FleetEngine) Lines() []*LineEngine {
	return f.lines
}

func (f *FleetEngine) capture(now time.Time) *models.FleetSnapshot {
	vehicles := make([]models.VehicleStatus, 0)
	for _, l := range f.lines {
		vehicles = append(vehicles, l.Snapshot(now)...)
	}
	return &models.FleetSnapshot{
		ID:       uuid.New(),
		Sequence: f.seq,
		Lines:    f.lineIDs,
		Vehicles: vehicles,
		System:   models.Summarize(vehicles, now),
	}
}
