// Package remotive searches the Remotive remote-jobs API.
package remotive

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/source/util"
)

const DefaultBaseURL = "https://remotive.com/api/remote-jobs"

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

func (s *Source) Name() string { return "remotive" }

type response struct {
	Jobs []job `json:"jobs"`
}

type job struct {
	ID                        int    `json:"id"`
	URL                       string `json:"url"`
	Title                     string `json:"title"`
	CompanyName               string `json:"company_name"`
	Category                  string `json:"category"`
	PublicationDate           string `json:"publication_date"`
	CandidateRequiredLocation string `json:"candidate_required_location"`
}

func (s *Source) Search(ctx context.Context, q domain.Query) ([]domain.JobRecord, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, err
	}
	v := u.Query()
	if q.Term != "" {
		v.Set("search", q.Term)
	}
	// Region and recency are filtered locally, so over-fetch a little.
	if q.Results > 0 {
		v.Set("limit", strconv.Itoa(q.Results*3))
	}
	u.RawQuery = v.Encode()

	var resp response
	if err := util.GetJSON(ctx, s.hc, s.limiter, u.String(), &resp); err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]domain.JobRecord, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		posted := util.ParseDate(j.PublicationDate)
		if !util.WithinHours(posted, q.HoursOld, now) {
			continue
		}
		if !util.MatchesRegion(j.CandidateRequiredLocation, q.Region) {
			continue
		}
		out = append(out, domain.JobRecord{
			Title:      util.CleanText(j.Title),
			Company:    util.CleanText(j.CompanyName),
			Location:   util.NormalizeLocation(j.CandidateRequiredLocation),
			Site:       s.Name(),
			DatePosted: util.FormatDate(posted),
			JobURL:     j.URL,
		})
		if q.Results > 0 && len(out) >= q.Results {
			break
		}
	}
	return out, nil
}
