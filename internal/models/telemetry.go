package models

import (
	"time"
)

// Door states.
const (
	DoorOpen   = "OPEN"
	DoorClosed = "CLOSED"
)

// Communication modes.
const (
	CommsNormal      = "NORMAL"
	CommsTunnelRelay = "TUNNEL_RELAY"
)

const (
	OperatingModeRevenue = "REVENUE"
	SystemHealthNormal   = "NORMAL"
)

// Position is where a vehicle is along its current segment.
type Position struct {
	Lat              float64 `bson:"lat" json:"lat"`
	Lng              float64 `bson:"lng" json:"lng"`
	Heading          float64 `bson:"heading" json:"heading"`
	CurrentStationID string  `bson:"current_station_id" json:"current_station_id"`
	NextStationID    string  `bson:"next_station_id" json:"next_station_id"`
	Progress         float64 `bson:"progress" json:"progress"`
}

// Telemetry holds the onboard readings of a vehicle.
type Telemetry struct {
	SpeedKmh           float64 `bson:"speed_kmh" json:"speed_kmh"`
	BrakingActive      bool    `bson:"b_chop_status" json:"b_chop_status"`
	EnergyRecoveredKwh float64 `bson:"energy_recovered_kwh" json:"energy_recovered_kwh"`
	BrakingTempC       float64 `bson:"regen_braking_temp" json:"regen_braking_temp"`
	MotorCurrentAmps   float64 `bson:"motor_current_amps" json:"motor_current_amps"`
	DoorStatus         string  `bson:"door_status" json:"door_status"`
}

// VehicleStatus is the published view of one vehicle at one point in simulated time.
type VehicleStatus struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Line          string    `bson:"line" json:"line"`
	Position      Position  `bson:"position" json:"position"`
	Telemetry     Telemetry `bson:"telemetry" json:"telemetry"`
	InTunnel      bool      `bson:"is_in_tunnel" json:"is_in_tunnel"`
	CommsMode     string    `bson:"comms_mode" json:"comms_mode"`
	OperatingMode string    `bson:"operating_mode" json:"operating_mode"`
	Direction     string    `bson:"direction" json:"direction"`
	ETASeconds    int       `bson:"next_station_eta_seconds" json:"next_station_eta_seconds"`
	AtStation     bool      `bson:"at_station" json:"at_station"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
}

// SystemStatus aggregates the fleet.
type SystemStatus struct {
	ActiveVehicles   int       `json:"active_trains"`
	TotalEnergyKwh   float64   `json:"total_energy_recovered_kwh"`
	VehiclesInTunnel int       `json:"trains_in_tunnel"`
	SystemHealth     string    `json:"system_health"`
	Timestamp        time.Time `json:"timestamp"`
}
