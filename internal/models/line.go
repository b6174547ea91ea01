package models

// Orientation describes which way forward travel (direction +1) runs along a line.
type Orientation string

const (
	OrientationNorthSouth Orientation = "north_south" // forward travel is southbound
	OrientationSouthNorth Orientation = "south_north"
	OrientationEastWest   Orientation = "east_west" // forward travel is westbound
	OrientationWestEast   Orientation = "west_east"
)

// Direction labels reported in telemetry.
const (
	DirectionNorthbound = "NORTHBOUND"
	DirectionSouthbound = "SOUTHBOUND"
	DirectionEastbound  = "EASTBOUND"
	DirectionWestbound  = "WESTBOUND"
)

// Station is a stop on a line.
type Station struct {
	ID             string `bson:"id" json:"id" yaml:"id" validate:"required"`
	Name           string `bson:"name" json:"name" yaml:"name" validate:"required"`
	Location       `bson:",inline" yaml:",inline"`
	Type           string `bson:"station_type" json:"station_type" yaml:"type"` // At-Grade, Underground, Elevated, Terminal
	TunnelBoundary bool   `bson:"is_tunnel_boundary" json:"is_tunnel_boundary" yaml:"tunnel_boundary"`
}

// Line is an ordered route of stations served by a fixed number of vehicles.
type Line struct {
	ID          string      `json:"id" yaml:"id" validate:"required"`
	Name        string      `json:"name" yaml:"name" validate:"required"`
	Color       string      `json:"color" yaml:"color" validate:"omitempty,hexcolor"`
	Description string      `json:"description" yaml:"description"`
	Orientation Orientation `json:"orientation" yaml:"orientation" validate:"oneof=north_south south_north east_west west_east"`
	Vehicles    int         `json:"vehicle_count" yaml:"vehicles" validate:"gte=0,lte=100"`
	Stations    []Station   `json:"-" yaml:"stations" validate:"min=2,dive"`
}

// DirectionLabel returns the compass label for travel in the given direction (+1 or -1).
func (l *Line) DirectionLabel(direction int) string {
	forward := direction >= 0
	switch l.Orientation {
	case OrientationSouthNorth:
		if forward {
			return DirectionNorthbound
		}
		return DirectionSouthbound
	case OrientationEastWest:
		if forward {
			return DirectionWestbound
		}
		return DirectionEastbound
	case OrientationWestEast:
		if forward {
			return DirectionEastbound
		}
		return DirectionWestbound
	default:
		if forward {
			return DirectionSouthbound
		}
		return DirectionNorthbound
	}
}

// TunnelSegment returns the indices of the first two tunnel-boundary stations.
// ok is false when the line has no tunnel section.
func (l *Line) TunnelSegment() (entry, exit int, ok bool) {
	entry, exit = -1, -1
	for i, s := range l.Stations {
		if !s.TunnelBoundary {
			continue
		}
		if entry < 0 {
			entry = i
			continue
		}
		exit = i
		return entry, exit, true
	}
	return -1, -1, false
}

// StationIndex returns the index of the station with the given id, or -1.
func (l *Line) StationIndex(id string) int {
	for i, s := range l.Stations {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// RouteCoordinates returns the line as [[lat, lng], ...] for polyline rendering.
func (l *Line) RouteCoordinates() [][2]float64 {
	coords := make([][2]float64, 0, len(l.Stations))
	for _, s := range l.Stations {
		coords = append(coords, [2]float64{s.Lat, s.Lng})
	}
	return coords
}

// LineInfo is the summary of a line returned by the lines endpoints.
type LineInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Description  string `json:"description"`
	StationCount int    `json:"station_count"`
}

// Info summarizes the line.
func (l *Line) Info() LineInfo {
	return LineInfo{
		ID:           l.ID,
		Name:         l.Name,
		Color:        l.Color,
		Description:  l.Description,
		StationCount: len(l.Stations),
	}
}

// LineStation is a station tagged with the line it belongs to.
type LineStation struct {
	Station
	Line string `json:"line"`
}
