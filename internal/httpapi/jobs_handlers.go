package httpapi

import (
	"io"
	"net/http"
)

// index serves the rendered dashboard, or the placeholder page before the
// first refresh lands.
func (s *server) index(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Get()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = io.WriteString(w, snap.View)
}

func (s *server) listJobs(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Get()
	if len(snap.Records) == 0 {
		WriteJSON(w, http.StatusOK, map[string]any{"status": "loading"})
		return
	}
	WriteJSON(w, http.StatusOK, snap.Records)
}
