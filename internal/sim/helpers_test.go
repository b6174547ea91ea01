package sim

import (
	"time"

	"github.com/ukydev/metro-telemetry/internal/models"
)

// fixedRand returns the same draws every time, which turns every jitter band into its midpoint.
type fixedRand struct {
	uniform float64
	normal  float64
}

func (r fixedRand) Float64() float64     { return r.uniform }
func (r fixedRand) NormFloat64() float64 { return r.normal }

func midRand() Rand { return fixedRand{uniform: 0.5} }

var epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

// testLine runs due north in ~1.1 km segments; B and C bound a tunnel.
func testLine() models.Line {
	return models.Line{
		ID:          "line3",
		Name:        "Line 3",
		Orientation: models.OrientationEastWest,
		Vehicles:    3,
		Stations: []models.Station{
			{ID: "A", Name: "Alpha", Location: models.Location{Lat: 9.00, Lng: -79.5}},
			{ID: "B", Name: "Bravo", Location: models.Location{Lat: 9.01, Lng: -79.5}, TunnelBoundary: true},
			{ID: "C", Name: "Charlie", Location: models.Location{Lat: 9.02, Lng: -79.5}, TunnelBoundary: true},
			{ID: "D", Name: "Delta", Location: models.Location{Lat: 9.03, Lng: -79.5}},
		},
	}
}

func testMachine() machine {
	return newMachine(testLine(), DefaultParams(), midRand())
}
