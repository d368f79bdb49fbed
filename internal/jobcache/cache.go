// Package jobcache owns the current job snapshot and the refresh worker that
// replaces it.
package jobcache

import (
	"sync/atomic"
	"time"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/render"
)

// Snapshot is an immutable view of one successful refresh. Callers must not
// modify Records.
type Snapshot struct {
	Records   []domain.JobRecord
	View      string
	UpdatedAt time.Time
	// Ready is false only for the startup placeholder.
	Ready bool
}

// Cache holds the current snapshot behind a single atomic pointer, together
// with the busy flag that serialises refreshes.
type Cache struct {
	snap atomic.Pointer[Snapshot]
	busy atomic.Bool
	now  func() time.Time
}

func New() *Cache {
	c := &Cache{now: time.Now}
	c.snap.Store(&Snapshot{
		Records: []domain.JobRecord{},
		View:    render.Placeholder(),
	})
	return c
}

// Get returns the current snapshot. It never blocks and never fails.
func (c *Cache) Get() Snapshot {
	return *c.snap.Load()
}

// Install replaces records and view together in one swap.
func (c *Cache) Install(records []domain.JobRecord, view string) Snapshot {
	if records == nil {
		records = []domain.JobRecord{}
	}
	s := &Snapshot{
		Records:   records,
		View:      view,
		UpdatedAt: c.now().UTC(),
		Ready:     true,
	}
	c.snap.Store(s)
	return *s
}

// TryBegin claims the busy flag. It returns false if a refresh is already running.
func (c *Cache) TryBegin() bool {
	return c.busy.CompareAndSwap(false, true)
}

func (c *Cache) End() {
	c.busy.Store(false)
}

func (c *Cache) Busy() bool {
	return c.busy.Load()
}
