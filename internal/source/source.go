// Package source defines the job boards the aggregator searches and the
// Board composite that fans one query out to all enabled boards.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/logger"
)

// Source is one external job board.
type Source interface {
	Name() string
	Search(ctx context.Context, q domain.Query) ([]domain.JobRecord, error)
}

// Board searches several sites concurrently. Results are merged in site
// order; the search fails only when every site fails.
type Board struct {
	sites []Source
	log   logger.Logger
}

func NewBoard(log logger.Logger, sites ...Source) *Board {
	if log == nil {
		log = logger.NewNop()
	}
	return &Board{sites: sites, log: log}
}

func (b *Board) Name() string {
	names := make([]string, 0, len(b.sites))
	for _, s := range b.sites {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

func (b *Board) Search(ctx context.Context, q domain.Query) ([]domain.JobRecord, error) {
	if len(b.sites) == 0 {
		return nil, errors.New("no job sites configured")
	}

	results := make([][]domain.JobRecord, len(b.sites))
	errs := make([]error, len(b.sites))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range b.sites {
		g.Go(func() error {
			rows, err := s.Search(gctx, q)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.Name(), err)
				b.log.Warn("site search failed",
					logger.String("site", s.Name()),
					logger.String("term", q.Term),
					logger.Error(err))
				return nil
			}
			for j := range rows {
				if rows[j].Site == "" {
					rows[j].Site = s.Name()
				}
			}
			results[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	var (
		out    []domain.JobRecord
		failed int
	)
	for i := range b.sites {
		if errs[i] != nil {
			failed++
			continue
		}
		out = append(out, results[i]...)
	}
	if failed == len(b.sites) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
