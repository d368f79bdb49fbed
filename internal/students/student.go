// Package students persists student accounts in MongoDB.
package students

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("student not found")
	ErrDuplicate = errors.New("email already registered")
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"

	PlacementNotApplied = "Not Applied"
)

// Courses offered by the portal. An empty course means "all listings".
var Courses = []string{
	"Digital Marketing",
	"Flutter",
	"React",
	"UI/UX",
	"MERN",
	"Django",
	"FastAPI",
}

// Student is the account document. In MongoDB the ID is an ObjectID stored in
// _id; here it is carried as its hex form.
type Student struct {
	ID                 string     `bson:"-" json:"id"`
	Email              string     `bson:"email" json:"email"`
	Name               string     `bson:"name,omitempty" json:"name,omitempty"`
	PasswordHash       string     `bson:"password,omitempty" json:"-"`
	PhoneNumber        string     `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	Course             string     `bson:"course,omitempty" json:"course,omitempty"`
	Provider           string     `bson:"auth_provider" json:"auth_provider"`
	JobPlacementStatus string     `bson:"job_placement_status" json:"job_placement_status"`
	IsActive           bool       `bson:"is_active" json:"is_active"`
	SignupDate         time.Time  `bson:"signup_date" json:"signup_date"`
	PasswordResetDate  *time.Time `bson:"password_reset_date,omitempty" json:"password_reset_date,omitempty"`
}

// Store is the persistence boundary used by the auth service.
type Store interface {
	Create(ctx context.Context, s Student) (Student, error)
	FindByEmail(ctx context.Context, email string) (Student, error)
	SetPassword(ctx context.Context, email, hash string, resetAt *time.Time) error
	UpsertGoogle(ctx context.Context, email, name, course string) (Student, error)
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidCourse reports whether c is empty or one of Courses.
func ValidCourse(c string) bool {
	if c == "" {
		return true
	}
	for _, known := range Courses {
		if strings.EqualFold(known, c) {
			return true
		}
	}
	return false
}

// CanonicalCourse returns the Courses spelling of c, or c unchanged.
func CanonicalCourse(c string) string {
	c = strings.TrimSpace(c)
	for _, known := range Courses {
		if strings.EqualFold(known, c) {
			return known
		}
	}
	return c
}
