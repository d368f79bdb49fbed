// Package smartrecruiters searches the public SmartRecruiters postings API
// for a configured set of companies.
package smartrecruiters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/source/util"
)

const (
	DefaultBaseURL = "https://api.smartrecruiters.com/v1/companies"
	jobsHost       = "https://jobs.smartrecruiters.com"
	pageSize       = 100
	maxOffset      = 1000
)

type Config struct {
	Companies []Company
	BaseURL   string
}

type Company struct {
	// Slug is the identifier used in https://jobs.smartrecruiters.com/<slug>
	Slug string
	Name string
}

type Scraper struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
	log     logger.Logger
	now     func() time.Time
}

func New(cfg Config, hc *http.Client, limiter *util.HostLimiter, log logger.Logger) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = util.NewClient()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Scraper{cfg: cfg, hc: hc, limiter: limiter, log: log, now: time.Now}
}

func (s *Scraper) Name() string { return "smartrecruiters" }

// { "content": [...], "totalFound": N, "offset": O, "limit": L }
type postingsResponse struct {
	Content    []posting `json:"content"`
	TotalFound int       `json:"totalFound"`
}

type posting struct {
	ID           string    `json:"id"`
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	ReleasedDate time.Time `json:"releasedDate"`
	Ref          string    `json:"ref"`
	Location     struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
		Remote  bool   `json:"remote"`
	} `json:"location"`
	Department struct {
		Label string `json:"label"`
	} `json:"department"`
}

// Search queries every company concurrently; failing companies are logged
// and skipped unless all of them fail.
func (s *Scraper) Search(ctx context.Context, q domain.Query) ([]domain.JobRecord, error) {
	const workers = 8

	companies := s.cfg.Companies
	if len(companies) == 0 {
		return nil, fmt.Errorf("smartrecruiters: no companies configured")
	}
	batches := make([][]domain.JobRecord, len(companies))
	errs := make([]error, len(companies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, co := range companies {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, 20*time.Second)
			defer cancel()
			rows, err := s.fetchCompany(cctx, co, q)
			if err != nil {
				s.log.Warn("smartrecruiters company failed",
					logger.String("company", co.Name),
					logger.String("slug", co.Slug),
					logger.Error(err))
				errs[i] = err
				return nil
			}
			batches[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	var (
		out    []domain.JobRecord
		failed int
	)
	for i := range companies {
		if errs[i] != nil {
			failed++
			continue
		}
		out = append(out, batches[i]...)
	}
	if failed == len(companies) {
		return nil, fmt.Errorf("smartrecruiters: all %d companies failed: %w", failed, errs[0])
	}
	if q.Results > 0 && len(out) > q.Results {
		out = out[:q.Results]
	}
	return out, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company, q domain.Query) ([]domain.JobRecord, error) {
	base := fmt.Sprintf("%s/%s/postings", strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(co.Slug))
	now := s.now()

	var out []domain.JobRecord
	for offset := 0; offset < maxOffset; offset += pageSize {
		v := url.Values{}
		v.Set("q", q.Term)
		v.Set("limit", fmt.Sprint(pageSize))
		v.Set("offset", fmt.Sprint(offset))

		var pr postingsResponse
		if err := util.GetJSON(ctx, s.hc, s.limiter, base+"?"+v.Encode(), &pr); err != nil {
			return out, fmt.Errorf("smartrecruiters get: %w", err)
		}

		for _, p := range pr.Content {
			title := util.CleanText(p.Name)
			id := firstNonEmpty(p.ID, p.UUID)
			if title == "" || id == "" {
				continue
			}
			if !util.MatchesTerm(q.Term, title, p.Department.Label) {
				continue
			}
			if !util.WithinHours(p.ReleasedDate, q.HoursOld, now) {
				continue
			}
			loc := util.NormalizeLocation(strings.Join(nonEmpty(p.Location.City, p.Location.Region, p.Location.Country), ", "))
			if p.Location.Remote {
				loc = strings.TrimSpace(strings.Join(nonEmpty("Remote", loc), ", "))
			}
			if !util.MatchesRegion(loc, q.Region) {
				continue
			}
			out = append(out, domain.JobRecord{
				Title:      title,
				Company:    co.Name,
				Location:   loc,
				Site:       s.Name(),
				DatePosted: util.FormatDate(p.ReleasedDate),
				JobURL:     fmt.Sprintf("%s/%s/%s", jobsHost, url.PathEscape(co.Slug), url.PathEscape(id)),
			})
		}

		if len(pr.Content) < pageSize || offset+pageSize >= pr.TotalFound {
			break
		}
		if q.Results > 0 && len(out) >= q.Results {
			break
		}
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
