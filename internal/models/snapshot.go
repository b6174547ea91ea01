package models

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrLineNotFound    = errors.New("line not found")
)

// FleetSnapshot is the read-only view of every vehicle at one point in simulated time.
type FleetSnapshot struct {
	ID       uuid.UUID       `json:"snapshot_id"`
	Sequence uint64          `json:"sequence"`
	Lines    []string        `json:"-"`
	Vehicles []VehicleStatus `json:"trains"`
	System   SystemStatus    `json:"system_status"`
}

// Summarize computes the fleet aggregates for a set of vehicles.
func Summarize(vehicles []VehicleStatus, ts time.Time) SystemStatus {
	var energy float64
	inTunnel := 0
	for _, v := range vehicles {
		energy += v.Telemetry.EnergyRecoveredKwh
		if v.InTunnel {
			inTunnel++
		}
	}
	return SystemStatus{
		ActiveVehicles:   len(vehicles),
		TotalEnergyKwh:   math.Round(energy*100) / 100,
		VehiclesInTunnel: inTunnel,
		SystemHealth:     SystemHealthNormal,
		Timestamp:        ts,
	}
}

// Vehicle returns the status of a single vehicle.
func (s *FleetSnapshot) Vehicle(id string) (VehicleStatus, error) {
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v, nil
		}
	}
	return VehicleStatus{}, ErrVehicleNotFound
}

// ForLine returns the vehicles of one line with aggregates recomputed for that subset.
func (s *FleetSnapshot) ForLine(lineID string) ([]VehicleStatus, SystemStatus, error) {
	known := false
	for _, l := range s.Lines {
		if l == lineID {
			known = true
			break
		}
	}
	if !known {
		return nil, SystemStatus{}, ErrLineNotFound
	}
	out := make([]VehicleStatus, 0, len(s.Vehicles))
	for _, v := range s.Vehicles {
		if v.Line == lineID {
			out = append(out, v)
		}
	}
	return out, Summarize(out, s.System.Timestamp), nil
}
