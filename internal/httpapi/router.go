package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobportal-engine/internal/auth"
	"jobportal-engine/internal/classify"
	"jobportal-engine/internal/events"
	"jobportal-engine/internal/jobcache"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/source"
)

// server holds the handler dependencies shared by every route.
type server struct {
	cache    *jobcache.Cache
	refresh  Trigger
	status   StatusSource
	hub      *events.Hub
	auth     *auth.Service
	google   GoogleFlow
	listings ListingStore
	classify *classify.Matcher
	search   source.Source
	metrics  *metrics.Metrics
	log      logger.Logger
}

// NewMux registers every route on a fresh ServeMux.
func NewMux(d Deps) *http.ServeMux {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(nil)
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.Classify == nil {
		d.Classify = classify.New(nil)
	}
	if d.Hub == nil {
		d.Hub = events.NewHub()
	}
	s := &server{
		cache:    d.Cache,
		refresh:  d.Refresh,
		status:   d.Status,
		hub:      d.Hub,
		auth:     d.Auth,
		google:   d.Google,
		listings: d.Listings,
		classify: d.Classify,
		search:   d.Search,
		metrics:  d.Metrics,
		log:      d.Log,
	}

	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, instrument(s.metrics, pattern, h))
	}

	// Snapshot
	handle("/{$}", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: s.index,
	}))
	handle("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: s.listJobs,
	}))
	handle("/api/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: s.searchJobs,
	}))

	// Refresh
	handle("/scrape", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  s.runScrape,
		http.MethodPost: s.runScrape,
	}))
	handle("/scrape/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: s.scrapeStatus,
	}))

	// SSE events
	handle("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: s.serveSSE,
	}))

	// Ops
	handle("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: s.health,
	}))
	mux.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	// Auth
	handle("/signup", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: s.signup,
	}))
	handle("/login", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: s.login,
	}))
	handle("/auth/google", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: s.googleSignIn,
	}))
	handle("/auth/google/login", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: s.googleLogin,
	}))
	handle("/auth/google/callback", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: s.googleCallback,
	}))
	handle("/forgot-password", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: s.forgotPassword,
	}))
	handle("/me", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: s.requireStudent(s.me),
	}))
	handle("/me/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: s.requireStudent(s.myJobs),
	}))

	// Listings
	handle("/listings", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  s.listListings,
		http.MethodPost: s.requireStudent(s.createListing),
	}))
	handle("/listings/import", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: s.requireStudent(s.importListings),
	}))
	handle("/listings/{id}", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    s.getListing,
		http.MethodPut:    s.requireStudent(s.updateListing),
		http.MethodDelete: s.requireStudent(s.deleteListing),
	}))

	return mux
}

// NewHandler wraps the mux in the standard middleware chain.
func NewHandler(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}
	return Chain(NewMux(d),
		RequestID,
		Recover(log),
		AccessLog(log),
		Cors,
	)
}
