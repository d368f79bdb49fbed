// Package classify tags listings with a category and matches listings to a
// student's course using keyword rules.
package classify

import (
	"strings"
	"unicode"

	"jobportal-engine/internal/config"
	"jobportal-engine/internal/domain"
)

// courseKeywords extends a course name with the words that identify its jobs.
var courseKeywords = map[string][]string{
	"digital marketing": {"digital marketing", "seo", "sem", "social media", "marketing", "content"},
	"flutter":           {"flutter", "dart", "mobile"},
	"react":             {"react", "reactjs", "frontend", "front end"},
	"ui/ux":             {"ui", "ux", "product designer", "figma", "designer"},
	"mern":              {"mern", "node", "nodejs", "express", "mongodb", "react", "javascript", "full stack"},
	"django":            {"django", "python"},
	"fastapi":           {"fastapi", "python", "backend"},
}

type rule struct {
	name    string
	needles [][]string
}

type Matcher struct {
	rules []rule
}

// New builds a Matcher over cats in config order. Each category matches on
// its name, its whole query phrase and any extra keywords.
func New(cats []config.Category) *Matcher {
	m := &Matcher{}
	for _, c := range cats {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		phrases := append([]string{name, c.Query}, c.Keywords...)
		m.rules = append(m.rules, rule{name: name, needles: tokenizeAll(phrases)})
	}
	return m
}

// Categories lists the category names in match order.
func (m *Matcher) Categories() []string {
	out := make([]string, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r.name)
	}
	return out
}

// Match returns the first category with a keyword in title or description,
// or "" when nothing matches.
func (m *Matcher) Match(title, description string) string {
	text := tokenize(title + " " + description)
	for _, r := range m.rules {
		if anyPhrase(text, r.needles) {
			return r.name
		}
	}
	return ""
}

// Matches reports whether rec belongs in the feed of a student taking course.
// Every record matches an empty course.
func (m *Matcher) Matches(rec domain.JobRecord, course string) bool {
	course = strings.TrimSpace(course)
	if course == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(rec.CategoryTag), course) {
		return true
	}
	needles := tokenizeAll(append([]string{course}, courseKeywords[strings.ToLower(course)]...))
	for _, r := range m.rules {
		if strings.EqualFold(r.name, course) {
			needles = append(needles, r.needles...)
		}
	}
	return anyPhrase(tokenize(rec.Title), needles)
}

// Filter keeps the records that match course, preserving order.
func (m *Matcher) Filter(recs []domain.JobRecord, course string) []domain.JobRecord {
	out := make([]domain.JobRecord, 0, len(recs))
	for _, r := range recs {
		if m.Matches(r, course) {
			out = append(out, r)
		}
	}
	return out
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenizeAll(phrases []string) [][]string {
	out := make([][]string, 0, len(phrases))
	for _, p := range phrases {
		if toks := tokenize(p); len(toks) > 0 {
			out = append(out, toks)
		}
	}
	return out
}

func anyPhrase(text []string, needles [][]string) bool {
	for _, n := range needles {
		if containsPhrase(text, n) {
			return true
		}
	}
	return false
}

// containsPhrase reports whether needle occurs in text as consecutive whole words.
func containsPhrase(text, needle []string) bool {
	for i := 0; i+len(needle) <= len(text); i++ {
		ok := true
		for j, w := range needle {
			if text[i+j] != w {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
