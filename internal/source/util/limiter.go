package util

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per board host (remotive.com,
// api.lever.co, boards.greenhouse.io, ...) so fan-out across categories and
// companies stays polite to each API.
type HostLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewHostLimiter allows reqPerSec per host. A non-positive rate disables
// limiting.
func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	l := rate.Inf
	if reqPerSec > 0 {
		l = rate.Limit(reqPerSec)
	}
	return &HostLimiter{
		limit:   l,
		burst:   max(burst, 1),
		buckets: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until host may be called again. A nil receiver only checks ctx.
func (hl *HostLimiter) Wait(ctx context.Context, host string) error {
	if hl == nil {
		return ctx.Err()
	}
	return hl.bucket(strings.ToLower(host)).Wait(ctx)
}

// WaitURL is Wait for the host of raw.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	host := "_"
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return hl.Wait(ctx, host)
}

// Hosts reports how many hosts have been seen.
func (hl *HostLimiter) Hosts() int {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return len(hl.buckets)
}

func (hl *HostLimiter) bucket(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	b, ok := hl.buckets[host]
	if !ok {
		b = rate.NewLimiter(hl.limit, hl.burst)
		hl.buckets[host] = b
	}
	return b
}
