package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	sseBuffer    = 64
	sseKeepalive = 15 * time.Second
)

// Events streams a game's events as Server-Sent Events.
// GET /api/games/{id}/events
//
// The first event is "state" with the current snapshot. Every engine
// event follows under its kind ("rolled", "moved", "won", ...). The
// stream ends with "closed" when the game is deleted or evicted.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "STREAMING_UNSUPPORTED")
		return
	}
	if h.pool != nil {
		if !h.pool.TryAcquireStream() {
			writeError(w, http.StatusServiceUnavailable, "too many open streams", "SERVER_BUSY")
			return
		}
		defer h.pool.ReleaseStream()
	}

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	feed, cancel := s.Watch(sseBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSEEvent(w, "state", gameResponse(s))
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepalive)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, ok := <-feed:
			if !ok {
				writeSSEEvent(w, "closed", nil)
				flusher.Flush()
				return
			}
			writeSSEEvent(w, ev.Kind.String(), ev)
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data any) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", jsonData)
	}
	fmt.Fprint(w, "\n")
}
