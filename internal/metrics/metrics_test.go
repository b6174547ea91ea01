package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleMetrics(t *testing.T) {
	SimulationTicks.Add(3)
	Sink("zz-test").Drops.Add(2)
	Sink("zz-test").Published.Add(1)

	rr := httptest.NewRecorder()
	HandleMetrics(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rr.Body.String()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, body, "metro_simulation_ticks_total")
	assert.Contains(t, body, `metro_sink_drops_total{sink="zz-test"} 2`)
	assert.Contains(t, body, `metro_sink_published_total{sink="zz-test"} 1`)
}

func TestSinkReturnsSameCounters(t *testing.T) {
	a := Sink("same")
	b := Sink("same")
	assert.Same(t, a, b)
}
