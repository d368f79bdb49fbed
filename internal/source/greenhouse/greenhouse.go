// Package greenhouse scrapes public Greenhouse job boards.
package greenhouse

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/source/util"
)

const DefaultBaseURL = "https://boards.greenhouse.io"

type Config struct {
	Companies []Company // list of boards
	BaseURL   string
}

type Company struct {
	Slug string // boards.greenhouse.io/<slug>
	Name string // display name
}

type Scraper struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
	log     logger.Logger
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
	return &Scraper{cfg: cfg, hc: hc, limiter: limiter, log: log}
}

func (s *Scraper) Name() string { return "greenhouse" }

// Search walks each board in order. Greenhouse boards carry no posting
// dates, so the recency window is not applied.
func (s *Scraper) Search(ctx context.Context, q domain.Query) ([]domain.JobRecord, error) {
	if len(s.cfg.Companies) == 0 {
		return nil, fmt.Errorf("greenhouse: no companies configured")
	}

	var (
		out     []domain.JobRecord
		lastErr error
		okCount int
	)
	for _, co := range s.cfg.Companies {
		rows, err := s.fetchCompany(ctx, co, q)
		if err != nil {
			// one board being down does not fail the run
			s.log.Warn("greenhouse board failed",
				logger.String("company", co.Name),
				logger.String("slug", co.Slug),
				logger.Error(err))
			lastErr = err
			continue
		}
		okCount++
		out = append(out, rows...)
		if q.Results > 0 && len(out) >= q.Results {
			out = out[:q.Results]
			break
		}
	}
	if okCount == 0 {
		return nil, fmt.Errorf("greenhouse: no board reachable: %w", lastErr)
	}
	return out, nil
}

type posting struct {
	title string
	url   string
	loc   string
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company, q domain.Query) ([]domain.JobRecord, error) {
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	boardURL := fmt.Sprintf("%s/%s", base, co.Slug)

	res, err := util.Get(ctx, s.hc, s.limiter, boardURL)
	if err != nil {
		return nil, fmt.Errorf("greenhouse get board: %w", err)
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("greenhouse parse board html: %w", err)
	}

	// Boards link to /<slug>/jobs/<id>; the opening row usually carries a location span.
	seen := map[string]bool{}
	var found []posting
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := util.AbsURL(boardURL, href)
		if abs == "" || !strings.Contains(strings.ToLower(abs), "/jobs/") {
			return
		}
		jobID := extractJobID(abs)
		if jobID == "" || seen[jobID] {
			return
		}
		seen[jobID] = true

		title := util.CleanText(a.Text())
		if util.IsLinkLabel(title) {
			title = ""
		}
		loc := util.CleanText(a.Closest(".opening").Find(".location").First().Text())
		found = append(found, posting{title: title, url: util.CanonicalURL(abs), loc: util.NormalizeLocation(loc)})
	})

	out := make([]domain.JobRecord, 0, len(found))
	for _, p := range found {
		if p.title == "" || p.loc == "" {
			s.hydrate(ctx, &p)
		}
		if p.title == "" || !util.MatchesTerm(q.Term, p.title) {
			continue
		}
		if !util.MatchesRegion(p.loc, q.Region) {
			continue
		}
		out = append(out, domain.JobRecord{
			Title:    p.title,
			Company:  co.Name,
			Location: p.loc,
			Site:     s.Name(),
			JobURL:   p.url,
		})
	}
	return out, nil
}

// hydrate fills title and location from the posting page. Failures keep the minimal entry.
func (s *Scraper) hydrate(ctx context.Context, p *posting) {
	res, err := util.Get(ctx, s.hc, s.limiter, p.url)
	if err != nil {
		return
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return
	}
	if p.title == "" {
		p.title = util.CleanText(doc.Find("h1").First().Text())
	}
	if p.loc == "" {
		p.loc = util.FindLocation(doc)
	}
}

func extractJobID(u string) string {
	parts := strings.SplitN(u, "/jobs/", 2)
	if len(parts) < 2 {
		return ""
	}
	id := parts[1]
	for i, r := range id {
		if r < '0' || r > '9' {
			id = id[:i]
			break
		}
	}
	return id
}
