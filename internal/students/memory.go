package students

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryStore is an in-process Store for tests and local runs without MongoDB.
type MemoryStore struct {
	mu      sync.Mutex
	byEmail map[string]Student
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEmail: map[string]Student{}, now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, s Student) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.Email = NormalizeEmail(s.Email)
	if _, ok := m.byEmail[s.Email]; ok {
		return Student{}, ErrDuplicate
	}
	s.ID = bson.NewObjectID().Hex()
	if s.SignupDate.IsZero() {
		s.SignupDate = m.now().UTC()
	}
	if s.JobPlacementStatus == "" {
		s.JobPlacementStatus = PlacementNotApplied
	}
	m.byEmail[s.Email] = s
	return s, nil
}

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return Student{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) SetPassword(_ context.Context, email, hash string, resetAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = NormalizeEmail(email)
	s, ok := m.byEmail[email]
	if !ok {
		return ErrNotFound
	}
	s.PasswordHash = hash
	if resetAt != nil {
		t := resetAt.UTC()
		s.PasswordResetDate = &t
	}
	m.byEmail[email] = s
	return nil
}

func (m *MemoryStore) UpsertGoogle(ctx context.Context, email, name, course string) (Student, error) {
	m.mu.Lock()
	email = NormalizeEmail(email)
	if s, ok := m.byEmail[email]; ok {
		if s.Course == "" {
			s.Course = course
		}
		if s.Name == "" {
			s.Name = name
		}
		m.byEmail[email] = s
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()
	return m.Create(ctx, Student{Email: email, Name: name, Course: course, Provider: ProviderGoogle, IsActive: true})
}
