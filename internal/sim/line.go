package sim

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/metro-telemetry/internal/models"
)

// Share of vehicles that start dwelling at a station.
const initialDwellShare = 0.3

// LineEngine runs the vehicles of one line. All methods are safe for concurrent use.
type LineEngine struct {
	mu       sync.Mutex
	m        machine
	vehicles []*VehicleState
}

// NewLineEngine places line.Vehicles vehicles along the line: start stations are spread across
// the route, directions alternate, and each vehicle either dwells or is part way along a segment.
func NewLineEngine(line models.Line, params Params, clock Clock, rng Rand) *LineEngine {
	e := &LineEngine{m: newMachine(line, params, rng)}
	now := clock.Now()
	n := len(line.Stations)
	spread := n - 1
	if spread < 1 {
		spread = 1
	}

	prefix := strings.ToUpper(line.ID)
	for i := 0; i < line.Vehicles; i++ {
		v := &VehicleState{
			ID:        fmt.Sprintf("%s-%03d", prefix, i+1),
			Name:      fmt.Sprintf("%s Train %d", prefix, i+1),
			LineID:    line.ID,
			StopIndex: (i * 2) % spread,
			Direction: 1,
			LastTick:  now,
		}
		if i%2 == 1 {
			v.Direction = -1
		}

		if rng.Float64() < initialDwellShare {
			v.AtStop = true
			v.DwellRemaining = uniform(rng, 0, params.DwellSeconds)
		} else {
			v.Progress = uniform(rng, 0.1, 0.9)
			v.SpeedKmh = params.MaxSpeedKmh * uniform(rng, 0.5, 0.875)
		}
		v.EnergyRecovered = uniform(rng, 0, 50)
		band := params.MaxBrakeTempC - params.MinBrakeTempC
		v.BrakeTempC = params.MinBrakeTempC + band*uniform(rng, 0.04, 0.3)

		e.vehicles = append(e.vehicles, v)
	}
	return e
}

// Line returns the line this engine runs.
func (e *LineEngine) Line() models.Line {
	return e.m.line
}

// Advance ticks every vehicle by the time elapsed since its own last tick.
func (e *LineEngine) Advance(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range e.vehicles {
		dt := now.Sub(v.LastTick).Seconds()
		if dt <= 0 {
			continue
		}
		e.m.step(v, dt)
		v.LastTick = now
	}
}

// Snapshot derives the published status of every vehicle.
func (e *LineEngine) Snapshot(now time.Time) []models.VehicleStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.VehicleStatus, 0, len(e.vehicles))
	for _, v := range e.vehicles {
		out = append(out, e.m.status(v, now))
	}
	return out
}

// Vehicles returns copies of the current vehicle states.
func (e *LineEngine) Vehicles() []VehicleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]VehicleState, 0, len(e.vehicles))
	for _, v := range e.vehicles {
		out = append(out, *v)
	}
	return out
}
