package httpapi

import (
	"net/http"
	"strings"

	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/store"
)

func (s *server) listListings(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "offset must be a non-negative integer")
		return
	}
	out, err := s.listings.ListListings(r.Context(), store.ListOpts{
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *server) getListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid id")
		return
	}
	l, err := s.listings.GetListing(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

func (s *server) createListing(w http.ResponseWriter, r *http.Request) {
	var in store.ListingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s.inferCategory(&in)
	l, err := s.listings.CreateListing(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, l)
}

func (s *server) updateListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid id")
		return
	}
	var in store.ListingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s.inferCategory(&in)
	l, err := s.listings.UpdateListing(r.Context(), id, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

func (s *server) deleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid id")
		return
	}
	if err := s.listings.DeleteListing(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

// importListings copies the current snapshot into the listings table.
func (s *server) importListings(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Get()
	added, err := s.listings.ImportRecords(r.Context(), snap.Records)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.log.Info("snapshot imported into listings",
		logger.Int("records", len(snap.Records)),
		logger.Int("added", added),
	)
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "added": added})
}

func (s *server) inferCategory(in *store.ListingInput) {
	if strings.TrimSpace(in.Category) == "" {
		in.Category = s.classify.Match(in.Title, in.Description)
	}
}
