package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-engine/internal/domain"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "listings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sample(link string) ListingInput {
	return ListingInput{
		Title:    "Backend Engineer",
		Company:  "Acme",
		Location: "Remote",
		Category: "Software",
		Link:     link,
		Source:   "manual",
	}
}

func TestOpen_MigrateIsIdempotent(t *testing.T) {
	db := openTest(t)
	require.NoError(t, Migrate(context.Background(), db.Pool))

	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, schemaVersion, v)
}

func TestListings_CRUD(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	created, err := db.CreateListing(ctx, sample("https://acme.test/jobs/1"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, DefaultSalary, created.Salary)

	got, err := db.GetListing(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", got.Title)
	assert.Equal(t, "https://acme.test/jobs/1", got.Link)
	assert.False(t, got.CreatedAt.IsZero())

	in := sample("https://acme.test/jobs/1")
	in.Title = "Senior Backend Engineer"
	in.Salary = "$100k"
	updated, err := db.UpdateListing(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Senior Backend Engineer", updated.Title)
	assert.Equal(t, "$100k", updated.Salary)

	require.NoError(t, db.DeleteListing(ctx, created.ID))
	_, err = db.GetListing(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteListing(ctx, created.ID), ErrNotFound)

	_, err = db.UpdateListing(ctx, created.ID, sample("https://acme.test/jobs/9"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateListing_Validation(t *testing.T) {
	db := openTest(t)
	_, err := db.CreateListing(context.Background(), ListingInput{Title: "  ", Company: "Acme"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"title", "location", "link", "source"}, vErr.Missing)
}

func TestCreateListing_DuplicateLink(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	_, err := db.CreateListing(ctx, sample("https://acme.test/jobs/1"))
	require.NoError(t, err)
	_, err = db.CreateListing(ctx, sample("https://acme.test/jobs/1"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestListListings_FilterAndPaging(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, cat := range []string{"Software", "Data", "Software"} {
		db.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		in := sample("https://acme.test/jobs/" + string(rune('a'+i)))
		in.Category = cat
		_, err := db.CreateListing(ctx, in)
		require.NoError(t, err)
	}

	all, err := db.ListListings(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://acme.test/jobs/c", all[0].Link, "newest first")

	sw, err := db.ListListings(ctx, ListOpts{Category: "software"})
	require.NoError(t, err)
	assert.Len(t, sw, 2)

	page, err := db.ListListings(ctx, ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "https://acme.test/jobs/b", page[0].Link)
}

func TestImportRecords(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	recs := []domain.JobRecord{
		{Title: "Dev", Company: "Acme", Location: domain.Missing, Site: "remotive", JobURL: "https://a.test/1", CategoryTag: "Python"},
		{Title: "Ops", Company: "Beta", Location: "Berlin", Site: "remoteok", JobURL: domain.Missing, CategoryTag: "Ops"},
		{Title: "QA", Company: "Gamma", Location: "Remote", Site: "lever", JobURL: "https://a.test/2", CategoryTag: domain.Missing},
	}
	added, err := db.ImportRecords(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = db.ImportRecords(ctx, recs)
	require.NoError(t, err)
	assert.Zero(t, added, "existing links are ignored")

	all, err := db.ListListings(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, l := range all {
		assert.Equal(t, DefaultSalary, l.Salary)
		if l.Link == "https://a.test/2" {
			assert.Empty(t, l.Category)
			assert.Equal(t, "lever", l.Source)
		}
	}
}

func TestCleanupOldListings(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now.Add(-100 * 24 * time.Hour) }
	_, err := db.CreateListing(ctx, sample("https://acme.test/old"))
	require.NoError(t, err)
	db.now = func() time.Time { return now }
	_, err = db.CreateListing(ctx, sample("https://acme.test/new"))
	require.NoError(t, err)

	n, err := db.CleanupOldListings(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	left, err := db.ListListings(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "https://acme.test/new", left[0].Link)
}
