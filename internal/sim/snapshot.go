package sim

import (
	"time"

	"github.com/ukydev/metro-telemetry/internal/models"
)

// Synthetic motor current: amps per km/h plus a symmetric noise band.
const (
	ampsPerKmh     = 8.0
	motorNoiseAmps = 20.0
)

// inTunnel reports whether v is running forward through the line's tunnel segment.
// Reverse traversal of the same segment does not count.
func (m *machine) inTunnel(v *VehicleState, next int) bool {
	if !m.hasTunnel || v.AtStop {
		return false
	}
	return v.StopIndex == m.tunnelEntry && next == m.tunnelExit && v.Progress > 0
}

func (m *machine) eta(v *VehicleState, pos models.Location, dest models.Location) int {
	eta := float64(ETASentinel)
	switch {
	case v.AtStop:
		eta = v.DwellRemaining
	case v.SpeedKmh > 0:
		avgKmPerSec := (v.SpeedKmh + m.params.ETABaselineKmh) / 2 / 3600
		eta = Distance(pos, dest) / avgKmPerSec
	}
	if eta > ETASentinel {
		eta = ETASentinel
	}
	if eta < 0 {
		eta = 0
	}
	return int(eta)
}

// status derives the published view of v. It never mutates v; the only side effect is
// the draw for motor current noise.
func (m *machine) status(v *VehicleState, now time.Time) models.VehicleStatus {
	stations := m.line.Stations
	// The label follows the stored direction; next may be flipped only to pick a target station.
	next, _ := nextIndex(v.StopIndex, v.Direction, len(stations))
	from, to := stations[v.StopIndex], stations[next]

	pos := Interpolate(from.Location, to.Location, v.Progress)
	tunnel := m.inTunnel(v, next)

	comms := models.CommsNormal
	if tunnel {
		comms = models.CommsTunnelRelay
	}
	door := models.DoorClosed
	if v.AtStop {
		door = models.DoorOpen
	}

	current := v.SpeedKmh*ampsPerKmh + uniform(m.rng, -motorNoiseAmps, motorNoiseAmps)
	if current < 0 {
		current = 0
	}

	return models.VehicleStatus{
		ID:   v.ID,
		Name: v.Name,
		Line: v.LineID,
		Position: models.Position{
			Lat:              pos.Lat,
			Lng:              pos.Lng,
			Heading:          round(Bearing(from.Location, to.Location), 1),
			CurrentStationID: from.ID,
			NextStationID:    to.ID,
			Progress:         round(v.Progress, 3),
		},
		Telemetry: models.Telemetry{
			SpeedKmh:           round(v.SpeedKmh, 1),
			BrakingActive:      m.params.Braking(v.Progress, v.AtStop),
			EnergyRecoveredKwh: round(v.EnergyRecovered, 2),
			BrakingTempC:       round(v.BrakeTempC, 1),
			MotorCurrentAmps:   round(current, 1),
			DoorStatus:         door,
		},
		InTunnel:      tunnel,
		CommsMode:     comms,
		OperatingMode: models.OperatingModeRevenue,
		Direction:     m.line.DirectionLabel(v.Direction),
		ETASeconds:    m.eta(v, pos, to.Location),
		AtStation:     v.AtStop,
		Timestamp:     now,
	}
}
