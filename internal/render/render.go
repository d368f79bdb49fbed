// Package render turns a record slice into the dashboard HTML served at "/".
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"jobportal-engine/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	dashboardTmpl   = template.Must(template.New("dashboard.html").Funcs(funcs).ParseFS(templateFS, "templates/dashboard.html"))
	placeholderTmpl = template.Must(template.ParseFS(templateFS, "templates/placeholder.html"))
)

var funcs = template.FuncMap{
	"link": func(u string) bool { return u != "" && u != domain.Missing },
}

type dashboardData struct {
	Count   int
	Records []domain.JobRecord
	Groups  []group
}

type group struct {
	Category string
	Count    int
}

// Dashboard renders records as an HTML table. The output depends only on
// records, so rendering the same slice twice yields identical bytes.
func Dashboard(records []domain.JobRecord) (string, error) {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, dashboardData{
		Count:   len(records),
		Records: records,
		Groups:  groupCounts(records),
	}); err != nil {
		return "", fmt.Errorf("render dashboard: %w", err)
	}
	return buf.String(), nil
}

// Placeholder is served before the first successful refresh.
func Placeholder() string {
	var buf bytes.Buffer
	if err := placeholderTmpl.Execute(&buf, nil); err != nil {
		return "<p>Jobs are loading, please refresh in a moment.</p>"
	}
	return buf.String()
}

// groupCounts counts records per category in first-seen order.
func groupCounts(records []domain.JobRecord) []group {
	idx := map[string]int{}
	var out []group
	for _, r := range records {
		i, ok := idx[r.CategoryTag]
		if !ok {
			i = len(out)
			idx[r.CategoryTag] = i
			out = append(out, group{Category: r.CategoryTag})
		}
		out[i].Count++
	}
	return out
}
