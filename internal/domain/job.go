package domain

import "strings"

// Missing is stored in place of any absent or blank record field.
const Missing = "N/A"

// JobRecord is one listing as produced by a board and served to clients.
type JobRecord struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Site        string `json:"site"`
	DatePosted  string `json:"date_posted"`
	JobURL      string `json:"job_url"`
	CategoryTag string `json:"category_tag"`
}

// Query is a single board search.
type Query struct {
	Term     string
	Results  int
	Region   string
	HoursOld int
}

// Key identifies a record for deduplication.
type Key struct {
	Title   string
	Company string
}

func (r JobRecord) Key() Key {
	return Key{Title: strings.TrimSpace(r.Title), Company: strings.TrimSpace(r.Company)}
}

// Normalized returns r with every blank field replaced by Missing.
func (r JobRecord) Normalized() JobRecord {
	r.Title = orMissing(r.Title)
	r.Company = orMissing(r.Company)
	r.Location = orMissing(r.Location)
	r.Site = orMissing(r.Site)
	r.DatePosted = orMissing(r.DatePosted)
	r.JobURL = orMissing(r.JobURL)
	r.CategoryTag = orMissing(r.CategoryTag)
	return r
}

func orMissing(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing
	}
	return s
}
