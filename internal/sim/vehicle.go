package sim

import (
	"math"
	"time"

	"github.com/ukydev/metro-telemetry/internal/models"
)

// Thermal and energy jitter bands, as multipliers of dt.
var (
	recoveryJitter = [2]float64{0.8, 1.2}
	heatingJitter  = [2]float64{0.5, 2.0}
	coolingJitter  = [2]float64{0.1, 0.5}
)

// VehicleState is the mutable simulation state of one vehicle.
// A vehicle is DWELLING while AtStop is set and in TRANSIT otherwise.
type VehicleState struct {
	ID              string
	Name            string
	LineID          string
	StopIndex       int
	Progress        float64
	Direction       int
	SpeedKmh        float64
	AtStop          bool
	DwellRemaining  float64
	EnergyRecovered float64
	BrakeTempC      float64
	LastTick        time.Time
}

// machine holds everything a vehicle step needs besides the vehicle itself.
type machine struct {
	line   models.Line
	params Params
	rng    Rand

	tunnelEntry int
	tunnelExit  int
	hasTunnel   bool
}

func newMachine(line models.Line, params Params, rng Rand) machine {
	entry, exit, ok := line.TunnelSegment()
	return machine{
		line:        line,
		params:      params,
		rng:         rng,
		tunnelEntry: entry,
		tunnelExit:  exit,
		hasTunnel:   ok,
	}
}

// nextIndex returns the stop a vehicle at idx travelling in dir is heading to, and the
// direction it will travel in. Vehicles shuttle: the direction flips at either end.
func nextIndex(idx, dir, n int) (int, int) {
	if dir == 0 {
		dir = 1
	}
	next := idx + dir
	if next >= n || next < 0 {
		dir = -dir
		next = idx + dir
	}
	return next, dir
}

// step advances v by dt seconds.
func (m *machine) step(v *VehicleState, dt float64) {
	if dt <= 0 {
		return
	}
	if dt > m.params.MaxTickSeconds {
		dt = m.params.MaxTickSeconds
	}

	motion := dt
	if v.AtStop {
		v.SpeedKmh = 0
		if v.DwellRemaining > dt {
			v.DwellRemaining -= dt
			m.updateBraking(v, dt)
			return
		}
		motion = dt - v.DwellRemaining
		v.DwellRemaining = 0
		v.AtStop = false
		v.Progress = 0
	}

	m.move(v, motion)
	m.updateBraking(v, dt)
}

func (m *machine) move(v *VehicleState, dt float64) {
	stations := m.line.Stations
	next, dir := nextIndex(v.StopIndex, v.Direction, len(stations))
	v.Direction = dir
	if dt <= 0 {
		return
	}

	segKm := Distance(stations[v.StopIndex].Location, stations[next].Location)

	target := m.params.TargetSpeed(v.Progress, false)
	if target < m.params.CreepSpeedKmh {
		target = m.params.CreepSpeedKmh
	}
	v.SpeedKmh = m.params.ramp(v.SpeedKmh, target, dt)
	v.SpeedKmh = clamp(v.SpeedKmh+m.jitter(), 0, m.params.SpeedLimit())

	if v.SpeedKmh > 0 && segKm > 0 {
		v.Progress += (v.SpeedKmh / 3600) / segKm * dt
	}

	if v.Progress >= 1 {
		v.StopIndex = next
		v.Progress = 0
		v.AtStop = true
		v.DwellRemaining = m.params.DwellSeconds
		v.SpeedKmh = 0
	}
}

// jitter is Gaussian speed noise bounded to three standard deviations.
func (m *machine) jitter() float64 {
	sigma := m.params.SpeedNoiseKmh
	if sigma <= 0 {
		return 0
	}
	return clamp(m.rng.NormFloat64()*sigma, -3*sigma, 3*sigma)
}

func (m *machine) updateBraking(v *VehicleState, dt float64) {
	p := m.params
	if p.Braking(v.Progress, v.AtStop) {
		v.EnergyRecovered += p.EnergyRecoveryRate * dt * uniform(m.rng, recoveryJitter[0], recoveryJitter[1])
		v.BrakeTempC += dt * uniform(m.rng, heatingJitter[0], heatingJitter[1])
	} else {
		v.BrakeTempC -= dt * uniform(m.rng, coolingJitter[0], coolingJitter[1])
	}
	v.BrakeTempC = clamp(v.BrakeTempC, p.MinBrakeTempC, p.MaxBrakeTempC)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
