// Package remoteok searches the RemoteOK public feed.
package remoteok

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/source/util"
)

const DefaultBaseURL = "https://remoteok.com/api"

type Source struct {
	baseURL string
	hc      *http.Client
	limiter *util.HostLimiter
	now     func() time.Time
}

func New(baseURL string, hc *http.Client, limiter *util.HostLimiter) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = util.NewClient()
	}
	return &Source{baseURL: baseURL, hc: hc, limiter: limiter, now: time.Now}
}

func (s *Source) Name() string { return "remoteok" }

// The feed's first element is a legal notice, so entries are decoded lazily
// and anything without a position is skipped.
type job struct {
	Company  string   `json:"company"`
	Position string   `json:"position"`
	Tags     []string `json:"tags"`
	Location string   `json:"location"`
	URL      string   `json:"url"`
	ApplyURL string   `json:"apply_url"`
	Epoch    int64    `json:"epoch"`
	Date     string   `json:"date"`
}

func (s *Source) Search(ctx context.Context, q domain.Query) ([]domain.JobRecord, error) {
	var raw []json.RawMessage
	if err := util.GetJSON(ctx, s.hc, s.limiter, s.baseURL, &raw); err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]domain.JobRecord, 0, len(raw))
	for _, r := range raw {
		var j job
		if err := json.Unmarshal(r, &j); err != nil || strings.TrimSpace(j.Position) == "" {
			continue
		}
		if !util.MatchesTerm(q.Term, j.Position, strings.Join(j.Tags, " ")) {
			continue
		}
		posted := util.ParseDate(j.Date)
		if j.Epoch > 0 {
			posted = time.Unix(j.Epoch, 0)
		}
		if !util.WithinHours(posted, q.HoursOld, now) {
			continue
		}
		if !util.MatchesRegion(j.Location, q.Region) {
			continue
		}
		link := j.URL
		if link == "" {
			link = j.ApplyURL
		}
		out = append(out, domain.JobRecord{
			Title:      util.CleanText(j.Position),
			Company:    util.CleanText(j.Company),
			Location:   util.NormalizeLocation(j.Location),
			Site:       s.Name(),
			DatePosted: util.FormatDate(posted),
			JobURL:     link,
		})
		if q.Results > 0 && len(out) >= q.Results {
			break
		}
	}
	return out, nil
}
