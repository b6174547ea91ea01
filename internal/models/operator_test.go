package models

import (
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"operator role", RoleOperator, true},
		{"viewer role", RoleViewer, true},
		{"invalid role", "admin", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestLine_DirectionLabel(t *testing.T) {
	tests := []struct {
		orientation Orientation
		direction   int
		expected    string
	}{
		{OrientationNorthSouth, 1, DirectionSouthbound},
		{OrientationNorthSouth, -1, DirectionNorthbound},
		{OrientationSouthNorth, 1, DirectionNorthbound},
		{OrientationSouthNorth, -1, DirectionSouthbound},
		{OrientationEastWest, 1, DirectionWestbound},
		{OrientationEastWest, -1, DirectionEastbound},
		{OrientationWestEast, 1, DirectionEastbound},
		{OrientationWestEast, -1, DirectionWestbound},
	}

	for _, tt := range tests {
		l := Line{Orientation: tt.orientation}
		if got := l.DirectionLabel(tt.direction); got != tt.expected {
			t.Errorf("%s dir %d: got %s, want %s", tt.orientation, tt.direction, got, tt.expected)
		}
	}
}

func TestLine_TunnelSegment(t *testing.T) {
	l := Line{Stations: []Station{
		{ID: "A"},
		{ID: "B", TunnelBoundary: true},
		{ID: "C", TunnelBoundary: true},
		{ID: "D"},
	}}
	entry, exit, ok := l.TunnelSegment()
	if !ok || entry != 1 || exit != 2 {
		t.Errorf("expected tunnel 1->2, got %d->%d ok=%v", entry, exit, ok)
	}

	plain := Line{Stations: []Station{{ID: "A"}, {ID: "B", TunnelBoundary: true}}}
	if _, _, ok := plain.TunnelSegment(); ok {
		t.Error("a single boundary station must not form a tunnel")
	}
	if plain.StationIndex("B") != 1 || plain.StationIndex("Z") != -1 {
		t.Error("StationIndex lookup mismatch")
	}
}
