package email

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobportal-engine/internal/source/util"
)

// Alert is one job card from a LinkedIn-style job alert email.
type Alert struct {
	Title    string
	Company  string
	Location string
	URL      string
}

var reJobID = regexp.MustCompile(`/jobs/view/(\d+)`)

// ParseAlertHTML extracts job cards in document order. Several anchors usually
// point at the same job (logo, title, "view job"); they are merged by job id.
func ParseAlertHTML(body string) ([]Alert, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var order []string
	byKey := map[string]*Alert{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		jobURL := unwrapRedirect(strings.TrimSpace(href))
		if !looksLikeJobURL(jobURL) {
			return
		}
		jobURL = util.CanonicalURL(jobURL)

		key := jobURL
		if m := reJobID.FindStringSubmatch(jobURL); len(m) == 2 {
			key = m[1]
		}
		j, ok := byKey[key]
		if !ok {
			j = &Alert{URL: jobURL}
			byKey[key] = j
			order = append(order, key)
		}

		if t := cleanTitle(a.Text()); betterTitle(t, j.Title) {
			j.Title = t
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Parent()
		}
		// "Company · Location"
		card.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := util.CleanText(p.Text())
			if j.Company == "" && strings.Contains(t, " · ") {
				parts := strings.SplitN(t, " · ", 2)
				j.Company = strings.TrimSpace(parts[0])
				j.Location = strings.TrimSpace(parts[1])
				return
			}
			if t2 := cleanTitle(t); !strings.Contains(t2, " · ") && betterTitle(t2, j.Title) {
				j.Title = t2
			}
		})
	})

	out := make([]Alert, 0, len(order))
	for _, k := range order {
		if j := byKey[k]; j.Title != "" {
			out = append(out, *j)
		}
	}
	return out, nil
}

func looksLikeJobURL(u string) bool {
	l := strings.ToLower(u)
	return strings.Contains(l, "linkedin.com") &&
		(strings.Contains(l, "/jobs/view/") || strings.Contains(l, "/comm/jobs/view/"))
}

// unwrapRedirect follows ?url= wrappers and google /url?q= redirects.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}
	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if raw := u.Query().Get("q"); raw != "" {
			if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
				return uu.String()
			}
		}
	}
	return u.String()
}

var badTitleParts = []string{"Actively recruiting", "Easy Apply", "Promoted"}

func cleanTitle(s string) string {
	s = util.CleanText(s)
	for _, b := range badTitleParts {
		s = strings.ReplaceAll(s, b, "")
	}
	low := strings.ToLower(s)
	for _, junk := range []string{"alumni", "connections", "applicants", "school"} {
		if strings.Contains(low, junk) {
			return ""
		}
	}
	return util.CleanText(s)
}

func betterTitle(candidate, current string) bool {
	if candidate == "" {
		return false
	}
	cs := titleScore(candidate)
	if current == "" {
		return cs >= 5
	}
	// replace only when clearly better, to avoid flip-flopping between anchors
	return cs >= titleScore(current)+3
}

var titleWords = []string{
	"engineer", "developer", "software", "backend", "frontend", "full stack",
	"data", "analyst", "scientist", "designer", "marketing", "manager",
	"intern", "associate", "assistant", "specialist", "consultant",
}

func titleScore(s string) int {
	l := strings.ToLower(s)
	if strings.Contains(l, "unsubscribe") || strings.Contains(l, "http") {
		return -50
	}

	score := 0
	for _, w := range titleWords {
		if strings.Contains(l, w) {
			score += 4
			break
		}
	}
	for _, bad := range []string{"apply", "view job", "see job", "see all", "sign in"} {
		if strings.Contains(l, bad) {
			score -= 6
		}
	}
	if strings.ContainsAny(s, "$€£") {
		score -= 8
	}
	if n := len([]rune(s)); n >= 4 && n <= 80 {
		score += 2
	} else {
		score -= 6
	}
	if strings.HasSuffix(s, ".") {
		score -= 4
	}
	return score
}
