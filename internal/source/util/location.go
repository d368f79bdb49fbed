package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// locationSelectors covers the Lever and Greenhouse posting layouts plus the
// schema.org markup some boards embed.
var locationSelectors = []string{
	".posting-categories .location",
	".job__location",
	".opening .location",
	".location",
	"[itemprop='jobLocation']",
	"[data-qa='location']",
}

var locationLabels = []string{"job location:", "locations:", "location:"}

// IsLinkLabel reports whether anchor text is a button label such as
// "View job" or "Apply now" rather than a posting title.
func IsLinkLabel(t string) bool {
	l := strings.ToLower(strings.TrimSpace(t))
	return l == "" || strings.HasPrefix(l, "view") || strings.HasPrefix(l, "apply")
}

// FindLocation looks for a posting location on a board's job page, falling
// back to a "Location:" line in the og:description.
func FindLocation(doc *goquery.Document) string {
	for _, sel := range locationSelectors {
		if t := CleanText(doc.Find(sel).First().Text()); t != "" {
			return NormalizeLocation(t)
		}
	}
	desc, _ := doc.Find(`meta[property="og:description"]`).Attr("content")
	return NormalizeLocation(labeledLocation(desc))
}

func labeledLocation(s string) string {
	low := strings.ToLower(s)
	for _, lab := range locationLabels {
		i := strings.Index(low, lab)
		if i < 0 {
			continue
		}
		rest := s[i+len(lab):]
		if j := strings.IndexAny(rest, "\n\r|·"); j >= 0 {
			rest = rest[:j]
		}
		if rest = CleanText(rest); rest != "" && len(rest) <= 80 {
			return rest
		}
	}
	return ""
}
