package util

import (
	"strings"
	"time"
)

// DateLayout is how posting dates are rendered into records.
const DateLayout = "2006-01-02"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimPrefix(loc, "LOCATIONS:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// MatchesTerm reports whether every word of term occurs in haystack,
// case-insensitively. An empty term matches everything.
func MatchesTerm(term string, haystack ...string) bool {
	words := strings.Fields(strings.ToLower(term))
	if len(words) == 0 {
		return true
	}
	blob := strings.ToLower(strings.Join(haystack, " "))
	for _, w := range words {
		if !strings.Contains(blob, w) {
			return false
		}
	}
	return true
}

var anywhere = []string{"worldwide", "anywhere", "global"}

// MatchesRegion reports whether a posting location is acceptable for region.
// Unknown locations and worldwide postings are kept.
func MatchesRegion(location, region string) bool {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		return true
	}
	loc := strings.ToLower(CleanText(location))
	if loc == "" || strings.Contains(loc, region) {
		return true
	}
	for _, a := range anywhere {
		if strings.Contains(loc, a) {
			return true
		}
	}
	return false
}

// WithinHours reports whether posted falls inside the last hours hours.
// Zero posted times and non-positive windows always pass.
func WithinHours(posted time.Time, hours int, now time.Time) bool {
	if hours <= 0 || posted.IsZero() {
		return true
	}
	return !posted.Before(now.Add(-time.Duration(hours) * time.Hour))
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// ParseDate tries the layouts job boards commonly emit.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		DateLayout,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
