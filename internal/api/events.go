package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sseHeartbeat is the idle interval between heartbeat events.
var sseHeartbeat = 15 * time.Second

// EventsStreamHandler handles GET /v1/events/stream?datasetId= as
// Server-Sent Events. Without datasetId it streams inline plans.
func (s *Server) EventsStreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	datasetID := r.URL.Query().Get("datasetId")
	topic := topicFor(tenantFrom(r.Context()), datasetID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)

	heartbeat := func() {
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: {\"datasetId\":%q,\"ts\":%q}\n\n", datasetID, time.Now().UTC().Format(time.RFC3339))
		flusher.Flush()
	}
	heartbeat()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		case <-ticker.C:
			heartbeat()
		}
	}
}
