package aggregate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-engine/internal/config"
	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/events"
	"jobportal-engine/internal/jobcache"
	"jobportal-engine/internal/metrics"
)

// fakeSource answers by query term.
type fakeSource struct {
	mu      sync.Mutex
	rows    map[string][]domain.JobRecord
	errs    map[string]error
	queries []domain.Query
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Search(ctx context.Context, q domain.Query) ([]domain.JobRecord, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[q.Term]; err != nil {
		return nil, err
	}
	out := make([]domain.JobRecord, len(f.rows[q.Term]))
	copy(out, f.rows[q.Term])
	return out, nil
}

var categories = []config.Category{
	{Name: "Python", Query: "python developer"},
	{Name: "Data", Query: "data analyst"},
}

func newAggregator(src *fakeSource, cfg Config) (*Aggregator, *jobcache.Cache, *metrics.Metrics) {
	if cfg.Categories == nil {
		cfg.Categories = categories
	}
	cache := jobcache.New()
	m := metrics.New(nil)
	a := New(cfg, Deps{Source: src, Cache: cache, Metrics: m})
	return a, cache, m
}

func TestRefresh_EndToEnd(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.JobRecord{
		"python developer": {{Title: "Dev", Company: "Acme", Location: ""}},
	}}
	a, cache, _ := newAggregator(src, Config{Categories: categories[:1], Results: 20, HoursOld: 72, Region: "India"})

	require.True(t, a.Refresh(context.Background()))

	s := cache.Get()
	require.True(t, s.Ready)
	require.Len(t, s.Records, 1)
	r := s.Records[0]
	assert.Equal(t, "Dev", r.Title)
	assert.Equal(t, "Acme", r.Company)
	assert.Equal(t, domain.Missing, r.Location)
	assert.Equal(t, "Python", r.CategoryTag)
	assert.Contains(t, s.View, "Dev")

	require.Len(t, src.queries, 1)
	assert.Equal(t, domain.Query{Term: "python developer", Results: 20, Region: "India", HoursOld: 72}, src.queries[0])
}

func TestRefresh_DedupFirstCategoryWins(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.JobRecord{
		"python developer": {
			{Title: "Dev", Company: "Acme", Site: "remotive"},
			{Title: "Dev", Company: "Acme", Site: "lever"},
			{Title: "Dev", Company: "Beta"},
		},
		"data analyst": {
			{Title: "Dev", Company: "Acme", Site: "remoteok"},
			{Title: "Analyst", Company: "Acme"},
		},
	}}
	a, cache, _ := newAggregator(src, Config{})
	require.True(t, a.Refresh(context.Background()))

	recs := cache.Get().Records
	require.Len(t, recs, 3)
	assert.Equal(t, domain.JobRecord{Title: "Dev", Company: "Acme", Site: "remotive", CategoryTag: "Python",
		Location: domain.Missing, DatePosted: domain.Missing, JobURL: domain.Missing}, recs[0])
	assert.Equal(t, "Beta", recs[1].Company)
	assert.Equal(t, "Analyst", recs[2].Title)
	assert.Equal(t, "Data", recs[2].CategoryTag)

	seen := map[domain.Key]bool{}
	for _, r := range recs {
		require.False(t, seen[r.Key()], "duplicate %v", r.Key())
		seen[r.Key()] = true
	}
}

func TestRefresh_PartialFailure(t *testing.T) {
	src := &fakeSource{
		rows: map[string][]domain.JobRecord{"data analyst": {{Title: "Analyst", Company: "Beta"}}},
		errs: map[string]error{"python developer": errors.New("rate limited")},
	}
	a, cache, m := newAggregator(src, Config{})

	require.True(t, a.Refresh(context.Background()))
	recs := cache.Get().Records
	require.Len(t, recs, 1)
	assert.Equal(t, "Data", recs[0].CategoryTag)

	st := a.Status()
	assert.Equal(t, []string{"Python"}, st.FailedCategories)
	assert.Equal(t, 1, st.LastCount)
	assert.NotEmpty(t, st.LastOkAt)
	assert.Contains(t, st.LastError, "1 of 2")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CategoryFailures.WithLabelValues("Python")))
}

func TestRefresh_TotalFailureKeepsSnapshot(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.JobRecord{
		"python developer": {{Title: "Dev", Company: "Acme"}},
	}}
	a, cache, m := newAggregator(src, Config{})
	require.True(t, a.Refresh(context.Background()))
	before := cache.Get()

	src.errs = map[string]error{
		"python developer": errors.New("down"),
		"data analyst":     errors.New("down"),
	}
	assert.False(t, a.Refresh(context.Background()))

	after := cache.Get()
	assert.Equal(t, before, after)
	st := a.Status()
	assert.Contains(t, st.LastError, "all categories failed")
	assert.Equal(t, before.UpdatedAt.Format(time.RFC3339), st.LastOkAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(metrics.ResultFailed)))
}

func TestRefresh_TotalFailureBeforeFirstSuccess(t *testing.T) {
	src := &fakeSource{errs: map[string]error{
		"python developer": errors.New("down"),
		"data analyst":     errors.New("down"),
	}}
	a, cache, _ := newAggregator(src, Config{})
	assert.False(t, a.Refresh(context.Background()))

	s := cache.Get()
	assert.False(t, s.Ready)
	assert.Empty(t, s.Records)
	assert.False(t, cache.Busy())
}

func TestRefresh_ConcurrentCallsCollapse(t *testing.T) {
	src := &fakeSource{
		rows:    map[string][]domain.JobRecord{"python developer": {{Title: "Dev", Company: "Acme"}}},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 4),
	}
	a, cache, m := newAggregator(src, Config{Categories: categories[:1]})

	first := make(chan bool)
	go func() { first <- a.Refresh(context.Background()) }()
	<-src.entered

	assert.True(t, a.Status().Running)
	assert.False(t, a.Refresh(context.Background()))

	close(src.block)
	assert.True(t, <-first)
	assert.False(t, cache.Busy())
	assert.Len(t, src.queries, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(metrics.ResultBusy)))
}

func TestRefresh_FetchTimeout(t *testing.T) {
	src := &fakeSource{
		rows:  map[string][]domain.JobRecord{"data analyst": {{Title: "Analyst", Company: "Beta"}}},
		block: make(chan struct{}),
	}
	a, _, _ := newAggregator(src, Config{FetchTimeout: 20 * time.Millisecond})

	assert.False(t, a.Refresh(context.Background()))
	assert.Equal(t, []string{"Python", "Data"}, a.Status().FailedCategories)
}

func TestRefresh_CancelledContext(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.JobRecord{"python developer": {{Title: "Dev"}}}}
	a, cache, _ := newAggregator(src, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, a.Refresh(ctx))
	assert.Empty(t, src.queries)
	assert.False(t, cache.Get().Ready)
}

func TestRefresh_RenderIsIdempotent(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.JobRecord{
		"python developer": {{Title: "Dev", Company: "Acme"}},
	}}
	a, cache, _ := newAggregator(src, Config{})
	require.True(t, a.Refresh(context.Background()))
	first := cache.Get()
	require.True(t, a.Refresh(context.Background()))
	second := cache.Get()

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.View, second.View)
}

func TestRefresh_PublishesAndExports(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.JobRecord{
		"python developer": {{Title: "Dev", Company: "Acme"}},
	}}
	hub := events.NewHub()
	ch := hub.Subscribe()
	export := filepath.Join(t.TempDir(), "jobs.html")

	cache := jobcache.New()
	a := New(Config{Categories: categories, ExportPath: export}, Deps{Source: src, Cache: cache, Hub: hub})
	require.True(t, a.Refresh(context.Background()))

	select {
	case evt := <-ch:
		assert.Contains(t, evt, events.TypeSnapshotUpdated)
	default:
		t.Fatal("no event published")
	}

	b, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Equal(t, cache.Get().View, string(b))
}

func TestRefresh_RenderErrorKeepsSnapshot(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.JobRecord{"python developer": {{Title: "Dev"}}}}
	a, cache, _ := newAggregator(src, Config{})
	a.render = func([]domain.JobRecord) (string, error) { return "", errors.New("template") }

	assert.False(t, a.Refresh(context.Background()))
	assert.False(t, cache.Get().Ready)
	assert.Equal(t, "template", a.Status().LastError)
}

func TestDedup(t *testing.T) {
	in := []domain.JobRecord{
		{Title: "A", Company: "X", Site: "1"},
		{Title: "A ", Company: "X", Site: "2"},
		{Title: "A", Company: "Y"},
	}
	out := Dedup(in)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].Site)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []domain.JobRecord{{Title: ""}}
	out := Normalize(in)
	assert.Equal(t, "", in[0].Title)
	assert.Equal(t, domain.Missing, out[0].Title)
}
