package sim

import (
	"math"

	"github.com/ukydev/metro-telemetry/internal/models"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b models.Location) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return earthRadiusKm * c
}

// Interpolate returns the point a fraction t of the way from a to b. Latitude and longitude
// are interpolated independently, which is close enough over urban segments.
func Interpolate(a, b models.Location, t float64) models.Location {
	return models.Location{Lat: a.Lat + (b.Lat-a.Lat)*t, Lng: a.Lng + (b.Lng-a.Lng)*t}
}

// Bearing returns the heading from a to b in degrees within [0, 360).
func Bearing(a, b models.Location) float64 {
	heading := math.Atan2(b.Lng-a.Lng, b.Lat-a.Lat) * 180 / math.Pi
	heading = math.Mod(heading+360, 360)
	if heading >= 360 {
		heading = 0
	}
	return heading
}
