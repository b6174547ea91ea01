package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/metro-telemetry/internal/gtfsrt"
)

// VehiclePositions serves the latest snapshot as a GTFS-Realtime feed.
// ?format=json returns the protojson rendering for debugging.
func (a *API) VehiclePositions(w http.ResponseWriter, r *http.Request) {
	snap := a.source.Latest()
	ts := snap.System.Timestamp

	var (
		data        []byte
		err         error
		contentType string
	)
	if r.URL.Query().Get("format") == "json" {
		data, err = gtfsrt.MarshalJSON(snap.Vehicles, ts)
		contentType = "application/json"
	} else {
		data, err = gtfsrt.Marshal(snap.Vehicles, ts)
		contentType = "application/x-protobuf"
	}
	if err != nil {
		log.WithError(err).Error("Failed to encode GTFS-RT feed")
		http.Error(w, "Failed to encode feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
