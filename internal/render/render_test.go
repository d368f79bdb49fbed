package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-engine/internal/domain"
)

var sample = []domain.JobRecord{
	{Title: "Dev", Company: "Acme", Location: domain.Missing, Site: "remotive", DatePosted: "2024-05-01", JobURL: "https://x.io/1", CategoryTag: "Python"},
	{Title: "Analyst <b>", Company: "Beta", Location: "Remote", Site: "lever", DatePosted: domain.Missing, JobURL: domain.Missing, CategoryTag: "Data"},
	{Title: "Py Intern", Company: "Gamma", Location: "Remote", Site: "remotive", DatePosted: "2024-05-02", JobURL: "https://x.io/3", CategoryTag: "Python"},
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestDashboard(t *testing.T) {
	html, err := Dashboard(sample)
	require.NoError(t, err)
	doc := parse(t, html)

	rows := doc.Find("tr.job")
	require.Equal(t, 3, rows.Length())
	assert.Equal(t, "Dev", rows.Eq(0).Find("td.title a").Text())
	assert.Equal(t, "N/A", rows.Eq(0).Find("td.location").Text())
	assert.Equal(t, "Analyst <b>", rows.Eq(1).Find("td.title").Text())
	assert.Equal(t, 0, rows.Eq(1).Find("td.title a").Length())

	assert.Equal(t, "3", doc.Find("#summary strong").Text())
	cats := doc.Find(".category-count")
	require.Equal(t, 2, cats.Length())
	assert.Equal(t, "Python: 2", cats.Eq(0).Text())
	assert.Equal(t, "Data: 1", cats.Eq(1).Text())
}

func TestDashboard_Deterministic(t *testing.T) {
	a, err := Dashboard(sample)
	require.NoError(t, err)
	b, err := Dashboard(sample)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDashboard_Empty(t *testing.T) {
	html, err := Dashboard(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, parse(t, html).Find("tr.job").Length())
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, 1, parse(t, Placeholder()).Find("#loading").Length())
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "jobs.html")
	require.NoError(t, Export(context.Background(), path, "<p>one</p>"))
	require.NoError(t, Export(context.Background(), path, "<p>two</p>"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>two</p>", string(b))

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	assert.Empty(t, matches)
}

func TestExport_WaitsForLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.html")
	held := flock.New(path + ".lock")
	require.NoError(t, held.Lock())
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	assert.Error(t, Export(ctx, path, "x"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestExport_NoPath(t *testing.T) {
	assert.NoError(t, Export(context.Background(), "", "x"))
}
