package util

import (
	"net/url"
	"strings"
)

// trackingParams are dropped from posting links so the same job shared
// through different campaigns keeps one URL.
var trackingParams = map[string]bool{
	"gclid":        true,
	"fbclid":       true,
	"msclkid":      true,
	"mc_cid":       true,
	"mc_eid":       true,
	"gh_src":       true,
	"lever-source": true,
	"lever-origin": true,
	"ref":          true,
	"refid":        true,
	"trackingid":   true,
	"trk":          true,
}

// CanonicalURL lower-cases scheme and host, drops the fragment and strips
// tracking parameters. Unparseable input is returned trimmed.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			q.Del(k)
		}
	}
	// Encode sorts by key.
	u.RawQuery = q.Encode()
	return u.String()
}

// AbsURL resolves href against base, returning "" when either is unusable.
func AbsURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}
