package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"jobportal-engine/internal/aggregate"
	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/logger"
)

const (
	defaultSearchRole     = "full stack developer"
	defaultSearchLocation = "India"
	defaultSearchLimit    = 50
	maxSearchLimit        = 200
	searchTimeout         = 60 * time.Second
)

type searchMetadata struct {
	Role     string `json:"role"`
	Location string `json:"location"`
}

type searchResponse struct {
	Status   string             `json:"status"`
	Count    int                `json:"count"`
	Metadata *searchMetadata    `json:"metadata,omitempty"`
	Jobs     []domain.JobRecord `json:"jobs"`
}

// searchJobs runs a live search for the caller's own role and location,
// bypassing the snapshot. Results get the same N/A fill and dedup as a refresh.
func (s *server) searchJobs(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "search_disabled", "live search is not configured")
		return
	}
	q := r.URL.Query()
	role := strings.TrimSpace(q.Get("role"))
	if role == "" {
		role = defaultSearchRole
	}
	location := strings.TrimSpace(q.Get("location"))
	if location == "" {
		location = defaultSearchLocation
	}
	limit, ok := queryInt(r, "limit")
	if !ok || (q.Has("limit") && limit == 0) {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
		return
	}
	if limit == 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
	defer cancel()
	rows, err := s.search.Search(ctx, domain.Query{Term: role, Region: location, Results: limit})
	if err != nil {
		s.log.Warn("live search failed",
			logger.String("role", role),
			logger.String("location", location),
			logger.Error(err))
		WriteError(w, r, http.StatusBadGateway, "search_failed", "job boards did not answer: "+err.Error())
		return
	}

	jobs := aggregate.Dedup(aggregate.Normalize(rows))
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	if len(jobs) == 0 {
		WriteJSON(w, http.StatusOK, searchResponse{Status: "success", Jobs: []domain.JobRecord{}})
		return
	}
	WriteJSON(w, http.StatusOK, searchResponse{
		Status:   "success",
		Count:    len(jobs),
		Metadata: &searchMetadata{Role: role, Location: location},
		Jobs:     jobs,
	})
}
