package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/metro-telemetry/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// RequestLogger logs every request once it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		metrics.HTTPRequests.Add(1)

		next.ServeHTTP(rec, r)

		entry := log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
			"remote":   getClientIP(r),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("Request failed")
			return
		}
		entry.Debug("Request handled")
	})
}
