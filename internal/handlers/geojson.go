package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/metro-telemetry/internal/models"
)

const geoJSONContentType = "application/geo+json"

// LineGeoJSON returns the route as a LineString followed by one Point per station.
func (a *API) LineGeoJSON(w http.ResponseWriter, r *http.Request) {
	line, ok := a.network.Line(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Line not found", http.StatusNotFound)
		return
	}

	route := make(orb.LineString, 0, len(line.Stations))
	for _, s := range line.Stations {
		route = append(route, point(s.Location))
	}

	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(route)
	f.Properties["kind"] = "route"
	f.Properties["id"] = line.ID
	f.Properties["name"] = line.Name
	f.Properties["color"] = line.Color
	fc.Append(f)

	for _, s := range line.Stations {
		sf := geojson.NewFeature(point(s.Location))
		sf.Properties["kind"] = "station"
		sf.Properties["id"] = s.ID
		sf.Properties["name"] = s.Name
		sf.Properties["station_type"] = s.Type
		sf.Properties["is_tunnel_boundary"] = s.TunnelBoundary
		sf.Properties["line"] = line.ID
		fc.Append(sf)
	}

	writeGeoJSON(w, fc)
}

// TrainsGeoJSON returns every vehicle as a Point, optionally filtered with ?line=.
func (a *API) TrainsGeoJSON(w http.ResponseWriter, r *http.Request) {
	snap := a.source.Latest()
	vehicles := snap.Vehicles
	if lineID := r.URL.Query().Get("line"); lineID != "" {
		var err error
		if vehicles, _, err = snap.ForLine(lineID); err != nil {
			http.Error(w, "Line not found", http.StatusNotFound)
			return
		}
	}

	fc := geojson.NewFeatureCollection()
	for i := range vehicles {
		v := &vehicles[i]
		f := geojson.NewFeature(point(models.Location{Lat: v.Position.Lat, Lng: v.Position.Lng}))
		f.ID = v.ID
		f.Properties["name"] = v.Name
		f.Properties["line"] = v.Line
		f.Properties["heading"] = v.Position.Heading
		f.Properties["speed_kmh"] = v.Telemetry.SpeedKmh
		f.Properties["direction"] = v.Direction
		f.Properties["at_station"] = v.AtStation
		f.Properties["is_in_tunnel"] = v.InTunnel
		f.Properties["next_station_id"] = v.Position.NextStationID
		f.Properties["next_station_eta_seconds"] = v.ETASeconds
		fc.Append(f)
	}

	writeGeoJSON(w, fc)
}

// point converts to GeoJSON axis order (lng, lat).
func point(l models.Location) orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

func writeGeoJSON(w http.ResponseWriter, fc *geojson.FeatureCollection) {
	data, err := fc.MarshalJSON()
	if err != nil {
		http.Error(w, "Failed to encode GeoJSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", geoJSONContentType)
	if _, err := w.Write(data); err != nil {
		log.WithError(err).Debug("GeoJSON write failed")
	}
}
