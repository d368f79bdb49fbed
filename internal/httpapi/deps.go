package httpapi

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"jobportal-engine/internal/aggregate"
	"jobportal-engine/internal/auth"
	"jobportal-engine/internal/classify"
	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/events"
	"jobportal-engine/internal/jobcache"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/source"
	"jobportal-engine/internal/store"
)

// Trigger queues a refresh without waiting for it. *jobcache.Worker implements it.
type Trigger interface {
	Trigger() bool
}

// StatusSource reports the last refresh outcome. *aggregate.Aggregator implements it.
type StatusSource interface {
	Status() aggregate.Status
}

// GoogleFlow is the browser OAuth flow. *auth.GoogleOAuth implements it.
type GoogleFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (auth.GoogleIdentity, error)
}

// ListingStore is the listings repository. *store.DB implements it.
type ListingStore interface {
	CreateListing(ctx context.Context, in store.ListingInput) (store.Listing, error)
	GetListing(ctx context.Context, id int64) (store.Listing, error)
	ListListings(ctx context.Context, opts store.ListOpts) ([]store.Listing, error)
	UpdateListing(ctx context.Context, id int64, in store.ListingInput) (store.Listing, error)
	DeleteListing(ctx context.Context, id int64) error
	ImportRecords(ctx context.Context, recs []domain.JobRecord) (int, error)
}

type Deps struct {
	Cache   *jobcache.Cache
	Refresh Trigger
	Status  StatusSource
	Hub     *events.Hub

	Auth     *auth.Service
	Google   GoogleFlow // nil disables the browser flow
	Listings ListingStore
	Classify *classify.Matcher
	Search   source.Source // nil disables /api/jobs

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      logger.Logger
}
