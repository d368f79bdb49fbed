// Package auth implements student sign-up, login, Google sign-in and
// password reset on top of the students store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/mailer"
	"jobportal-engine/internal/students"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccessDenied       = errors.New("access denied")
	ErrGoogleDisabled     = errors.New("google sign-in is not configured")
)

// InputError is a request the caller must fix.
type InputError struct{ Msg string }

func (e *InputError) Error() string { return e.Msg }

const minPasswordLen = 6

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	Course      string `json:"course"`
	Name        string `json:"name"`
}

type Deps struct {
	Students students.Store
	JWT      *JWTManager
	Mailer   mailer.Sender
	Google   IDTokenVerifier
	Log      logger.Logger
}

type Service struct {
	students students.Store
	jwt      *JWTManager
	mailer   mailer.Sender
	google   IDTokenVerifier
	log      logger.Logger
	now      func() time.Time
	mailWait time.Duration
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Mailer == nil {
		d.Mailer = mailer.NewNop(d.Log)
	}
	return &Service{
		students: d.Students,
		jwt:      d.JWT,
		mailer:   d.Mailer,
		google:   d.Google,
		log:      d.Log.With(logger.String("component", "auth")),
		now:      time.Now,
		mailWait: 15 * time.Second,
	}
}

// Signup registers a password account and returns a token for it.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (string, error) {
	email, err := parseEmail(req.Email)
	if err != nil {
		return "", err
	}
	if len(req.Password) < minPasswordLen {
		return "", &InputError{Msg: fmt.Sprintf("password must be at least %d characters", minPasswordLen)}
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return "", &InputError{Msg: "phone_number is required"}
	}
	if !students.ValidCourse(strings.TrimSpace(req.Course)) {
		return "", &InputError{Msg: fmt.Sprintf("unknown course %q", req.Course)}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return "", err
	}
	st, err := s.students.Create(ctx, students.Student{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		Course:       students.CanonicalCourse(req.Course),
		Provider:     students.ProviderPassword,
		IsActive:     true,
	})
	if errors.Is(err, students.ErrDuplicate) {
		return "", ErrEmailTaken
	}
	if err != nil {
		return "", err
	}

	s.log.Info("student signed up", logger.String("email", st.Email), logger.String("course", st.Course))
	if msg, err := mailer.Welcome(st.Email, st.Name, st.Course); err == nil {
		s.sendBestEffort(ctx, msg)
	} else {
		s.log.Warn("welcome mail render failed", logger.Error(err))
	}

	return s.jwt.GenerateToken(st.Email, RoleStudent)
}

// Login checks the password and returns a token. Every failure is reported
// as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	st, err := s.students.FindByEmail(ctx, email)
	if errors.Is(err, students.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !st.IsActive || !CheckPassword(st.PasswordHash, password) {
		s.log.Warn("login failed", logger.String("email", st.Email))
		return "", ErrInvalidCredentials
	}
	return s.jwt.GenerateToken(st.Email, RoleStudent)
}

// GoogleSignIn verifies an ID token, upserts the student and returns a token.
func (s *Service) GoogleSignIn(ctx context.Context, rawIDToken, course string) (string, error) {
	if s.google == nil {
		return "", ErrGoogleDisabled
	}
	if strings.TrimSpace(rawIDToken) == "" {
		return "", &InputError{Msg: "id_token is required"}
	}
	id, err := s.google.Verify(ctx, rawIDToken)
	if err != nil {
		s.log.Warn("google token rejected", logger.Error(err))
		return "", ErrInvalidToken
	}
	return s.SignInIdentity(ctx, id, course)
}

// SignInIdentity upserts a verified Google identity and returns a token.
func (s *Service) SignInIdentity(ctx context.Context, id GoogleIdentity, course string) (string, error) {
	if !students.ValidCourse(strings.TrimSpace(course)) {
		return "", &InputError{Msg: fmt.Sprintf("unknown course %q", course)}
	}
	st, err := s.students.UpsertGoogle(ctx, id.Email, id.Name, students.CanonicalCourse(course))
	if err != nil {
		return "", err
	}
	if !st.IsActive {
		return "", ErrAccessDenied
	}
	return s.jwt.GenerateToken(st.Email, RoleStudent)
}

// ForgotPassword sets and mails a temporary password. Unknown emails are
// silently accepted.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	st, err := s.students.FindByEmail(ctx, email)
	if errors.Is(err, students.ErrNotFound) {
		s.log.Info("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	temp, err := TempPassword()
	if err != nil {
		return err
	}
	hash, err := HashPassword(temp)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if err := s.students.SetPassword(ctx, st.Email, hash, &now); err != nil {
		return err
	}

	msg, err := mailer.PasswordReset(st.Email, st.Name, temp)
	if err != nil {
		return err
	}
	s.sendBestEffort(ctx, msg)
	s.log.Info("password reset issued", logger.String("email", st.Email))
	return nil
}

// Authenticate resolves a bearer token to an active student.
func (s *Service) Authenticate(ctx context.Context, token string) (students.Student, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return students.Student{}, ErrInvalidToken
	}
	st, err := s.students.FindByEmail(ctx, claims.Subject)
	if errors.Is(err, students.ErrNotFound) {
		return students.Student{}, ErrAccessDenied
	}
	if err != nil {
		return students.Student{}, err
	}
	if !st.IsActive {
		return students.Student{}, ErrAccessDenied
	}
	return st, nil
}

func (s *Service) sendBestEffort(ctx context.Context, msg mailer.Message) {
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailWait)
	defer cancel()
	if err := s.mailer.Send(mctx, msg); err != nil {
		s.log.Warn("mail send failed",
			logger.String("to", msg.To),
			logger.String("subject", msg.Subject),
			logger.Error(err),
		)
	}
}

func parseEmail(raw string) (string, error) {
	email := students.NormalizeEmail(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &InputError{Msg: "a valid email is required"}
	}
	return email, nil
}
