// Package aggregate runs the periodic refresh: one search per category,
// tag, normalize, dedup, render, install.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"jobportal-engine/internal/config"
	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/events"
	"jobportal-engine/internal/jobcache"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/render"
	"jobportal-engine/internal/source"
)

type Config struct {
	// Categories are searched in order; earlier ones win duplicate records.
	Categories   []config.Category
	Results      int
	HoursOld     int
	Region       string
	FetchTimeout time.Duration
	ExportPath   string
}

// ConfigFrom copies the refresh section of the app config.
func ConfigFrom(cfg config.Config) Config {
	r := cfg.Refresh
	return Config{
		Categories:   r.Categories,
		Results:      r.ResultsWanted,
		HoursOld:     r.HoursOld,
		Region:       r.Region,
		FetchTimeout: r.FetchTimeout,
		ExportPath:   r.ExportPath,
	}
}

// Publisher receives encoded snapshot events. *events.Hub implements it.
type Publisher interface {
	Publish(evt string) int
}

type Deps struct {
	Source  source.Source
	Cache   *jobcache.Cache
	Hub     Publisher
	Metrics *metrics.Metrics
	Log     logger.Logger
}

type Aggregator struct {
	cfg     Config
	src     source.Source
	cache   *jobcache.Cache
	hub     Publisher
	metrics *metrics.Metrics
	log     logger.Logger

	status atomic.Pointer[Status]
	now    func() time.Time
	render func([]domain.JobRecord) (string, error)
}

func New(cfg Config, d Deps) *Aggregator {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(nil)
	}
	a := &Aggregator{
		cfg:     cfg,
		src:     d.Source,
		cache:   d.Cache,
		hub:     d.Hub,
		metrics: d.Metrics,
		log:     d.Log,
		now:     time.Now,
		render:  render.Dashboard,
	}
	a.status.Store(&Status{})
	return a
}

// Refresh rebuilds the snapshot. It returns false without doing anything if
// another refresh holds the busy flag, and false if every category failed
// (the previous snapshot stays in place). Otherwise it installs a new
// snapshot and returns true, even when some categories failed.
func (a *Aggregator) Refresh(ctx context.Context) bool {
	if !a.cache.TryBegin() {
		a.metrics.RefreshTotal.WithLabelValues(metrics.ResultBusy).Inc()
		a.log.Debug("refresh skipped, already running")
		return false
	}
	defer a.cache.End()

	start := a.now()
	st := a.Status()
	st.LastRunAt = start.UTC().Format(time.RFC3339)
	st.FailedCategories = nil

	records, failed, err := a.collect(ctx)
	st.FailedCategories = failed
	a.metrics.RefreshDuration.Observe(a.now().Sub(start).Seconds())

	if err != nil {
		st.LastError = err.Error()
		a.status.Store(&st)
		a.metrics.RefreshTotal.WithLabelValues(metrics.ResultFailed).Inc()
		a.log.Error("refresh failed, keeping previous snapshot", logger.Error(err))
		a.publish(events.TypeRefreshFailed, events.RefreshFailed{Error: err.Error()})
		return false
	}

	records = Dedup(Normalize(records))

	view, err := a.render(records)
	if err != nil {
		st.LastError = err.Error()
		a.status.Store(&st)
		a.metrics.RefreshTotal.WithLabelValues(metrics.ResultFailed).Inc()
		a.log.Error("render failed, keeping previous snapshot", logger.Error(err))
		a.publish(events.TypeRefreshFailed, events.RefreshFailed{Error: err.Error()})
		return false
	}

	snap := a.cache.Install(records, view)

	st.LastOkAt = snap.UpdatedAt.Format(time.RFC3339)
	st.LastCount = len(records)
	st.LastError = ""
	if len(failed) > 0 {
		st.LastError = fmt.Sprintf("%d of %d categories failed", len(failed), len(a.cfg.Categories))
	}
	a.status.Store(&st)

	a.metrics.RefreshTotal.WithLabelValues(metrics.ResultInstalled).Inc()
	a.metrics.SnapshotRecords.Set(float64(len(records)))
	a.metrics.SnapshotTimestamp.Set(float64(snap.UpdatedAt.Unix()))
	a.log.Info("snapshot installed",
		logger.Int("records", len(records)),
		logger.Strings("failed_categories", failed),
		logger.Duration("took", a.now().Sub(start)))

	a.publish(events.TypeSnapshotUpdated, events.SnapshotUpdated{
		Count:     len(records),
		Failed:    failed,
		UpdatedAt: snap.UpdatedAt.Format(time.RFC3339),
	})

	if a.cfg.ExportPath != "" {
		if err := render.Export(ctx, a.cfg.ExportPath, view); err != nil {
			a.log.Warn("export failed", logger.String("path", a.cfg.ExportPath), logger.Error(err))
		}
	}
	return true
}

// collect searches every category in order. Failing categories are logged,
// counted and skipped; an error is returned only if none succeeded.
func (a *Aggregator) collect(ctx context.Context) ([]domain.JobRecord, []string, error) {
	if len(a.cfg.Categories) == 0 {
		return nil, nil, errors.New("no categories configured")
	}

	var (
		all    []domain.JobRecord
		failed []string
		errs   []error
	)
	for _, c := range a.cfg.Categories {
		rows, err := a.search(ctx, c)
		if err != nil {
			failed = append(failed, c.Name)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			a.metrics.CategoryFailures.WithLabelValues(c.Name).Inc()
			a.log.Warn("category search failed",
				logger.String("category", c.Name),
				logger.String("query", c.Query),
				logger.Error(err))
			continue
		}
		for i := range rows {
			rows[i].CategoryTag = c.Name
		}
		all = append(all, rows...)
	}
	if len(failed) == len(a.cfg.Categories) {
		return nil, failed, fmt.Errorf("all categories failed: %w", errors.Join(errs...))
	}
	return all, failed, nil
}

func (a *Aggregator) search(ctx context.Context, c config.Category) ([]domain.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.FetchTimeout)
		defer cancel()
	}
	return a.src.Search(ctx, domain.Query{
		Term:     c.Query,
		Results:  a.cfg.Results,
		Region:   a.cfg.Region,
		HoursOld: a.cfg.HoursOld,
	})
}

func (a *Aggregator) publish(typ string, data any) {
	if a.hub == nil {
		return
	}
	a.hub.Publish(events.MakeEvent("", typ, data))
}
