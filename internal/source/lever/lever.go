// Package lever searches public Lever postings for a configured set of companies.
package lever

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/source/util"
)

const DefaultBaseURL = "https://api.lever.co/v0/postings"

type Config struct {
	Companies []Company
	// BaseURL overrides the postings API root.
	BaseURL string
}

type Company struct {
	Slug string // api.lever.co/v0/postings/<slug>
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

func (s *Scraper) Name() string { return "lever" }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
}

// Search queries every company concurrently. A company that fails is logged
// and skipped; the search only fails when all of them do.
func (s *Scraper) Search(ctx context.Context, q domain.Query) ([]domain.JobRecord, error) {
	const workers = 8

	companies := s.cfg.Companies
	if len(companies) == 0 {
		return nil, fmt.Errorf("lever: no companies configured")
	}
	batches := make([][]domain.JobRecord, len(companies))
	errs := make([]error, len(companies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, co := range companies {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, 15*time.Second)
			defer cancel()
			rows, err := s.fetchCompany(cctx, co, q)
			if err != nil {
				s.log.Warn("lever company failed",
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
		return nil, fmt.Errorf("lever: all %d companies failed: %w", failed, errs[0])
	}
	if q.Results > 0 && len(out) > q.Results {
		out = out[:q.Results]
	}
	s.log.Debug("lever search done", logger.String("term", q.Term), logger.Int("rows", len(out)))
	return out, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company, q domain.Query) ([]domain.JobRecord, error) {
	apiURL := fmt.Sprintf("%s/%s?mode=json", strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(co.Slug))

	var postings []leverPosting
	if err := util.GetJSON(ctx, s.hc, s.limiter, apiURL, &postings); err != nil {
		return nil, fmt.Errorf("lever get: %w", err)
	}

	now := s.now()
	out := make([]domain.JobRecord, 0, len(postings))
	for _, p := range postings {
		title := util.CleanText(p.Text)
		if p.ID == "" || p.HostedURL == "" || title == "" {
			continue
		}
		if !util.MatchesTerm(q.Term, title, p.Categories.Team) {
			continue
		}
		var posted time.Time
		if p.CreatedAt > 0 {
			posted = time.UnixMilli(p.CreatedAt)
		}
		if !util.WithinHours(posted, q.HoursOld, now) {
			continue
		}
		loc := util.NormalizeLocation(p.Categories.Location)
		if loc == "" {
			loc = s.hydrateLocation(ctx, p.HostedURL)
		}
		if !util.MatchesRegion(loc, q.Region) {
			continue
		}
		out = append(out, domain.JobRecord{
			Title:      title,
			Company:    co.Name,
			Location:   loc,
			Site:       s.Name(),
			DatePosted: util.FormatDate(posted),
			JobURL:     p.HostedURL,
		})
	}
	return out, nil
}

// hydrateLocation reads the hosted posting page when the API omits a location.
func (s *Scraper) hydrateLocation(ctx context.Context, pageURL string) string {
	res, err := util.Get(ctx, s.hc, s.limiter, pageURL)
	if err != nil {
		return ""
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return ""
	}
	return util.FindLocation(doc)
}
