package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"jobportal-engine/internal/domain"
)

var (
	ErrNotFound  = errors.New("listing not found")
	ErrDuplicate = errors.New("listing with this link already exists")
)

const DefaultSalary = "Not Disclosed"

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Listing struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Salary      string    `json:"salary"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListingInput is the writable part of a listing.
type ListingInput struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Source      string `json:"source"`
}

// ValidationError lists the required fields a listing is missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// Validate trims every field, applies the salary default and checks required fields.
func (in *ListingInput) Validate() error {
	for _, f := range []*string{&in.Title, &in.Company, &in.Location, &in.Category, &in.Salary, &in.Description, &in.Link, &in.Source} {
		*f = strings.TrimSpace(*f)
	}
	if in.Salary == "" {
		in.Salary = DefaultSalary
	}
	var missing []string
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if in.Company == "" {
		missing = append(missing, "company")
	}
	if in.Location == "" {
		missing = append(missing, "location")
	}
	if in.Link == "" {
		missing = append(missing, "link")
	}
	if in.Source == "" {
		missing = append(missing, "source")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

type ListOpts struct {
	Category string
	Limit    int
	Offset   int
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

const listingCols = `id, title, company, location, category, salary, description, link, source, created_at`

func (d *DB) CreateListing(ctx context.Context, in ListingInput) (Listing, error) {
	if err := in.Validate(); err != nil {
		return Listing{}, err
	}
	created := d.now().UTC()
	res, err := d.Pool.ExecContext(ctx, `
INSERT INTO listings(title, company, location, category, salary, description, link, source, created_at)
VALUES(?,?,?,?,?,?,?,?,?);`,
		in.Title, in.Company, in.Location, in.Category, in.Salary, in.Description, in.Link, in.Source,
		created.Format(timeLayout))
	if err != nil {
		if isUnique(err) {
			return Listing{}, ErrDuplicate
		}
		return Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	return fromInput(id, in, created), nil
}

func (d *DB) GetListing(ctx context.Context, id int64) (Listing, error) {
	row := d.Pool.QueryRowContext(ctx, `SELECT `+listingCols+` FROM listings WHERE id = ?;`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Listing{}, ErrNotFound
	}
	if err != nil {
		return Listing{}, fmt.Errorf("get listing %d: %w", id, err)
	}
	return l, nil
}

// ListListings returns newest first, optionally filtered by category.
func (d *DB) ListListings(ctx context.Context, opts ListOpts) ([]Listing, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.Limit > maxLimit {
		opts.Limit = maxLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	query := `SELECT ` + listingCols + ` FROM listings`
	var args []any
	if c := strings.TrimSpace(opts.Category); c != "" {
		query += ` WHERE category = ? COLLATE NOCASE`
		args = append(args, c)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?;`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	out := []Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DB) UpdateListing(ctx context.Context, id int64, in ListingInput) (Listing, error) {
	if err := in.Validate(); err != nil {
		return Listing{}, err
	}
	res, err := d.Pool.ExecContext(ctx, `
UPDATE listings
SET title = ?, company = ?, location = ?, category = ?, salary = ?, description = ?, link = ?, source = ?
WHERE id = ?;`,
		in.Title, in.Company, in.Location, in.Category, in.Salary, in.Description, in.Link, in.Source, id)
	if err != nil {
		if isUnique(err) {
			return Listing{}, ErrDuplicate
		}
		return Listing{}, fmt.Errorf("update listing %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Listing{}, ErrNotFound
	}
	return d.GetListing(ctx, id)
}

func (d *DB) DeleteListing(ctx context.Context, id int64) error {
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM listings WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete listing %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ImportRecords copies aggregated records into listings, skipping records
// without a usable link and links that already exist. It returns how many
// rows were added.
func (d *DB) ImportRecords(ctx context.Context, recs []domain.JobRecord) (int, error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO listings(title, company, location, category, salary, description, link, source, created_at)
VALUES(?,?,?,?,?,'',?,?,?);`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	created := d.now().UTC().Format(timeLayout)
	added := 0
	for _, r := range recs {
		link := strings.TrimSpace(r.JobURL)
		if link == "" || link == domain.Missing {
			continue
		}
		category := r.CategoryTag
		if category == domain.Missing {
			category = ""
		}
		res, err := stmt.ExecContext(ctx, r.Title, r.Company, r.Location, category, DefaultSalary, link, r.Site, created)
		if err != nil {
			return 0, fmt.Errorf("import %q: %w", link, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// CleanupOldListings deletes listings created before now minus maxAge.
func (d *DB) CleanupOldListings(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := d.now().UTC().Add(-maxAge).Format(timeLayout)
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM listings WHERE created_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old listings: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner) (Listing, error) {
	var (
		l       Listing
		created string
	)
	if err := s.Scan(&l.ID, &l.Title, &l.Company, &l.Location, &l.Category, &l.Salary,
		&l.Description, &l.Link, &l.Source, &created); err != nil {
		return Listing{}, err
	}
	l.CreatedAt, _ = time.Parse(timeLayout, created)
	return l, nil
}

func fromInput(id int64, in ListingInput, created time.Time) Listing {
	return Listing{
		ID:          id,
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		Category:    in.Category,
		Salary:      in.Salary,
		Description: in.Description,
		Link:        in.Link,
		Source:      in.Source,
		CreatedAt:   created,
	}
}

func isUnique(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
