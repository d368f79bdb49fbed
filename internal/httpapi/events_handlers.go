package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"jobportal-engine/internal/events"
)

const (
	sseRetry     = 5 * time.Second
	sseKeepAlive = 25 * time.Second
)

// serveSSE streams hub events until the client leaves or the hub closes.
// Comment lines keep idle proxies from dropping the connection.
func (s *server) serveSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	fmt.Fprintf(w, "retry: %d\n", sseRetry.Milliseconds())
	writeSSE(w, events.MakeEvent(RequestIDFrom(r.Context()), events.TypePing, nil))
	flusher.Flush()

	tick := time.NewTicker(sseKeepAlive)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, msg)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, data string) {
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
}
