package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ukydev/metro-telemetry/internal/metrics"
	"github.com/ukydev/metro-telemetry/internal/middleware"
	"github.com/ukydev/metro-telemetry/internal/models"
)

// RouterConfig selects the optional layers of the HTTP surface.
type RouterConfig struct {
	// Auth and Tokens are nil when authentication is disabled.
	Auth   *middleware.AuthMiddleware
	Tokens *AuthHandler

	RateLimiter       *middleware.RateLimitMiddleware
	RateLimitRequests int
	RateLimitWindow   int

	CORSOrigins []string
}

// NewRouter wires every endpoint. CORS, rate limiting and request logging wrap the
// router itself so preflight requests never reach route matching.
func NewRouter(api *API, cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", api.Health).Methods(http.MethodGet)
	r.HandleFunc("/metrics", metrics.HandleMetrics).Methods(http.MethodGet)
	if cfg.Tokens != nil {
		r.HandleFunc("/api/auth/token", cfg.Tokens.Token).Methods(http.MethodPost)
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	if cfg.Auth != nil {
		apiRouter.Use(cfg.Auth.Authenticate)
	}

	apiRouter.HandleFunc("/lines", api.Lines).Methods(http.MethodGet)
	apiRouter.HandleFunc("/lines/{id}/stations", api.LineStations).Methods(http.MethodGet)
	apiRouter.HandleFunc("/lines/{id}/geojson", api.LineGeoJSON).Methods(http.MethodGet)
	apiRouter.HandleFunc("/stations", api.Lines).Methods(http.MethodGet)
	apiRouter.HandleFunc("/trains", api.Trains).Methods(http.MethodGet)
	apiRouter.HandleFunc("/trains.geojson", api.TrainsGeoJSON).Methods(http.MethodGet)
	apiRouter.HandleFunc("/trains/{id}", api.Train).Methods(http.MethodGet)
	apiRouter.HandleFunc("/system", api.System).Methods(http.MethodGet)
	apiRouter.HandleFunc("/stream", api.Stream).Methods(http.MethodGet)
	apiRouter.HandleFunc("/ws", api.WebSocket).Methods(http.MethodGet)
	apiRouter.HandleFunc("/gtfsrt/vehicle-positions", api.VehiclePositions).Methods(http.MethodGet)

	var params http.Handler = http.HandlerFunc(api.Params)
	if cfg.Auth != nil {
		params = cfg.Auth.RequireRole(models.RoleOperator)(params)
	}
	apiRouter.Handle("/params", params).Methods(http.MethodGet)

	var h http.Handler = r
	if cfg.RateLimiter != nil && cfg.RateLimitRequests > 0 {
		h = cfg.RateLimiter.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)(h)
	}
	h = middleware.CORS(cfg.CORSOrigins)(h)
	return middleware.RequestLogger(h)
}
