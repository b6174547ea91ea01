package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/metro-telemetry/internal/metrics"
)

func TestRequestLogger(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	before := metrics.HTTPRequests.Load()
	req := httptest.NewRequest(http.MethodGet, "/api/trains?access_token=secret", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, before+1, metrics.HTTPRequests.Load())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusInternalServerError, entry.Data["status"])
	assert.Equal(t, "/api/trains", entry.Data["path"])
}

func TestStatusRecorder_Flush(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	rec.Flush()
	assert.True(t, w.Flushed)

	_, _, err := rec.Hijack()
	assert.Error(t, err, "httptest recorder cannot be hijacked")
}
