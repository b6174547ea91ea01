package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/metro-telemetry/internal/metrics"
	"github.com/ukydev/metro-telemetry/internal/models"
)

const wsWriteTimeout = 10 * time.Second

// Stream pushes every snapshot the runner produces as a Server-Sent Event.
// The first frame is the latest snapshot so clients render immediately.
func (a *API) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	frames, unsubscribe := a.source.Subscribe()
	defer unsubscribe()

	metrics.StreamClients.Add(1)
	defer metrics.StreamClients.Add(-1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, a.source.Latest()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-frames:
			if !ok {
				return
			}
			if err := writeEvent(w, snap); err != nil {
				log.WithError(err).Debug("SSE client went away")
				return
			}
			flusher.Flush()
			metrics.SnapshotsStreamed.Add(1)
		}
	}
}

func writeEvent(w io.Writer, snap *models.FleetSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", snap.Sequence, data)
	return err
}

// WebSocket pushes every snapshot as a JSON text message. Client messages are ignored.
func (a *API) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	frames, unsubscribe := a.source.Subscribe()
	defer unsubscribe()

	metrics.WebSocketClients.Add(1)
	defer metrics.WebSocketClients.Add(-1)

	// The read loop notices the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(snap *models.FleetSnapshot) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(snap)
	}

	if err := send(a.source.Latest()); err != nil {
		return
	}

	goingAway := func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			goingAway()
			return
		case snap, ok := <-frames:
			if !ok {
				goingAway()
				return
			}
			if err := send(snap); err != nil {
				log.WithError(err).Debug("WebSocket client went away")
				return
			}
			metrics.SnapshotsStreamed.Add(1)
		}
	}
}

// originChecker allows same-origin requests and any listed origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
