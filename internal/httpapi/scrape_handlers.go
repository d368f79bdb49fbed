package httpapi

import (
	"net/http"

	"jobportal-engine/internal/events"
)

// runScrape queues a refresh and answers immediately. queued is false when
// a refresh is already waiting to run.
func (s *server) runScrape(w http.ResponseWriter, r *http.Request) {
	queued := s.refresh.Trigger()
	if queued {
		s.hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeRefreshQueued, nil))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "queued": queued})
}

func (s *server) scrapeStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.status.Status())
}
