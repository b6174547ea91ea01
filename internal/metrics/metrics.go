package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	SimulationTicks   atomic.Int64
	HTTPRequests      atomic.Int64
	AuthFailures      atomic.Int64
	RateLimited       atomic.Int64
	StreamClients     atomic.Int64
	WebSocketClients  atomic.Int64
	SnapshotsStreamed atomic.Int64
)

// SinkCounters tracks delivery to one push sink.
type SinkCounters struct {
	Published atomic.Int64
	Failures  atomic.Int64
	Drops     atomic.Int64
}

var sinks sync.Map // name -> *SinkCounters

// Sink returns the counters for the named sink, creating them on first use.
func Sink(name string) *SinkCounters {
	c, _ := sinks.LoadOrStore(name, &SinkCounters{})
	return c.(*SinkCounters)
}

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "metro_simulation_ticks_total %d\n", SimulationTicks.Load())
	fmt.Fprintf(w, "metro_http_requests_total %d\n", HTTPRequests.Load())
	fmt.Fprintf(w, "metro_auth_failures_total %d\n", AuthFailures.Load())
	fmt.Fprintf(w, "metro_rate_limited_total %d\n", RateLimited.Load())
	fmt.Fprintf(w, "metro_stream_clients %d\n", StreamClients.Load())
	fmt.Fprintf(w, "metro_websocket_clients %d\n", WebSocketClients.Load())
	fmt.Fprintf(w, "metro_snapshots_streamed_total %d\n", SnapshotsStreamed.Load())

	var names []string
	sinks.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	for _, name := range names {
		c := Sink(name)
		fmt.Fprintf(w, "metro_sink_published_total{sink=%q} %d\n", name, c.Published.Load())
		fmt.Fprintf(w, "metro_sink_failures_total{sink=%q} %d\n", name, c.Failures.Load())
		fmt.Fprintf(w, "metro_sink_drops_total{sink=%q} %d\n", name, c.Drops.Load())
	}
}
