package sim

import (
	"math/rand"
	"sync"
	"time"
)

// Clock supplies the wall-clock time used to measure elapsed simulation time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ManualClock only moves when told to. Safe for concurrent use.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Rand is the source of every stochastic quantity in the simulation.
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	NormFloat64() float64
}

// NewRand returns a seeded generator.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

func uniform(r Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}
