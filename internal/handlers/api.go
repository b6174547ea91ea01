package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/metro-telemetry/internal/models"
	"github.com/ukydev/metro-telemetry/internal/topology"
)

const serviceName = "metro-telemetry"

// SnapshotSource serves the most recent fleet snapshot and pushes new ones to subscribers.
type SnapshotSource interface {
	Latest() *models.FleetSnapshot
	Subscribe() (<-chan *models.FleetSnapshot, func())
}

// API serves the read side of the simulation. Every request is answered from the
// source's latest snapshot; no handler advances the fleet.
type API struct {
	source   SnapshotSource
	network  topology.Network
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewAPI creates the handlers. allowedOrigins restricts WebSocket upgrades; "*" allows any.
func NewAPI(source SnapshotSource, network topology.Network, allowedOrigins []string) *API {
	a := &API{
		source:  source,
		network: network,
		now:     time.Now,
	}
	a.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return a
}

// AllLinesResponse lists every line with its stations and polylines.
type AllLinesResponse struct {
	Lines               []models.LineInfo       `json:"lines"`
	AllStations         []models.LineStation    `json:"all_stations"`
	AllRouteCoordinates map[string][][2]float64 `json:"all_route_coordinates"`
}

// StationListResponse describes one line.
type StationListResponse struct {
	Stations         []models.LineStation `json:"stations"`
	RouteCoordinates [][2]float64         `json:"route_coordinates"`
	Line             models.LineInfo      `json:"line"`
}

// TrainListResponse is the fleet, or one line of it, with matching aggregates.
type TrainListResponse struct {
	Trains       []models.VehicleStatus `json:"trains"`
	SystemStatus models.SystemStatus    `json:"system_status"`
}

// Health reports liveness and how far the simulation has advanced.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	snap := a.source.Latest()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": a.now().UTC().Format(time.RFC3339),
		"sequence":  snap.Sequence,
	})
}

// Lines returns every line. /api/stations serves the same document.
func (a *API) Lines(w http.ResponseWriter, r *http.Request) {
	resp := AllLinesResponse{
		Lines:               make([]models.LineInfo, 0, len(a.network.Lines)),
		AllStations:         a.network.Stations(),
		AllRouteCoordinates: make(map[string][][2]float64, len(a.network.Lines)),
	}
	for i := range a.network.Lines {
		l := &a.network.Lines[i]
		resp.Lines = append(resp.Lines, l.Info())
		resp.AllRouteCoordinates[l.ID] = l.RouteCoordinates()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) LineStations(w http.ResponseWriter, r *http.Request) {
	line, ok := a.network.Line(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Line not found", http.StatusNotFound)
		return
	}
	stations := make([]models.LineStation, 0, len(line.Stations))
	for _, s := range line.Stations {
		stations = append(stations, models.LineStation{Station: s, Line: line.ID})
	}
	writeJSON(w, http.StatusOK, StationListResponse{
		Stations:         stations,
		RouteCoordinates: line.RouteCoordinates(),
		Line:             line.Info(),
	})
}

// Trains returns the fleet, optionally filtered with ?line=.
func (a *API) Trains(w http.ResponseWriter, r *http.Request) {
	snap := a.source.Latest()
	lineID := r.URL.Query().Get("line")
	if lineID == "" {
		writeJSON(w, http.StatusOK, TrainListResponse{Trains: snap.Vehicles, SystemStatus: snap.System})
		return
	}

	trains, system, err := snap.ForLine(lineID)
	if errors.Is(err, models.ErrLineNotFound) {
		http.Error(w, "Line not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, TrainListResponse{Trains: trains, SystemStatus: system})
}

func (a *API) Train(w http.ResponseWriter, r *http.Request) {
	v, err := a.source.Latest().Vehicle(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Train not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) System(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.source.Latest().System)
}

// Params returns the physics the fleet runs with.
func (a *API) Params(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.network.Physics)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}
