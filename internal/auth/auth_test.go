package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-engine/internal/mailer"
	"jobportal-engine/internal/students"
)

type fakeVerifier struct {
	id  GoogleIdentity
	err error
}

func (f fakeVerifier) Verify(context.Context, string) (GoogleIdentity, error) {
	return f.id, f.err
}

func newTestService(t *testing.T) (*Service, *students.MemoryStore, *mailer.Recorder) {
	t.Helper()
	st := students.NewMemoryStore()
	rec := &mailer.Recorder{}
	svc := NewService(Deps{
		Students: st,
		JWT:      NewJWTManager("test-secret", time.Hour),
		Mailer:   rec,
		Google:   fakeVerifier{id: GoogleIdentity{Email: "g@example.com", Name: "Grace"}},
	})
	return svc, st, rec
}

func signupReq() SignupRequest {
	return SignupRequest{Email: "Ada@Example.com", Password: "hunter22", PhoneNumber: "+91 98470 00000", Course: "react"}
}

func TestJWT_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	tok, err := m.GenerateToken("ada@example.com", RoleStudent)
	require.NoError(t, err)

	claims, err := m.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Subject)
	assert.Equal(t, RoleStudent, claims.Role)

	_, err = NewJWTManager("other", time.Minute).ValidateToken(tok)
	assert.Error(t, err)
}

func TestJWT_Expired(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	base := time.Now()
	m.now = func() time.Time { return base.Add(-2 * time.Hour) }
	tok, err := m.GenerateToken("ada@example.com", RoleStudent)
	require.NoError(t, err)

	m.now = func() time.Time { return base }
	_, err = m.ValidateToken(tok)
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret!"))

	a, err := TempPassword()
	require.NoError(t, err)
	b, err := TempPassword()
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestSignup_ThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, st, rec := newTestService(t)

	tok, err := svc.Signup(ctx, signupReq())
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	saved, err := st.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "React", saved.Course)
	assert.NotEqual(t, "hunter22", saved.PasswordHash)
	assert.Equal(t, students.PlacementNotApplied, saved.JobPlacementStatus)

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].To)

	login, err := svc.Login(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)
	me, err := svc.Authenticate(ctx, login)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", me.Email)
}

func TestSignup_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Signup(ctx, signupReq())
	require.NoError(t, err)
	_, err = svc.Signup(ctx, signupReq())
	assert.ErrorIs(t, err, ErrEmailTaken)

	var inErr *InputError
	bad := signupReq()
	bad.Email = "not-an-email"
	_, err = svc.Signup(ctx, bad)
	assert.ErrorAs(t, err, &inErr)

	bad = signupReq()
	bad.Email = "b@example.com"
	bad.Password = "123"
	_, err = svc.Signup(ctx, bad)
	assert.ErrorAs(t, err, &inErr)

	bad = signupReq()
	bad.Email = "c@example.com"
	bad.Course = "Cobol"
	_, err = svc.Signup(ctx, bad)
	assert.ErrorAs(t, err, &inErr)
}

func TestSignup_MailFailureIsNotSurfaced(t *testing.T) {
	svc, _, rec := newTestService(t)
	rec.Err = errors.New("smtp down")

	tok, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}

func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)
	_, err := svc.Signup(ctx, signupReq())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ada@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// google-only accounts have no password
	_, err = st.UpsertGoogle(ctx, "g@example.com", "Grace", "")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "g@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGoogleSignIn(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)

	tok, err := svc.GoogleSignIn(ctx, "raw-id-token", "flutter")
	require.NoError(t, err)
	me, err := svc.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", me.Email)
	assert.Equal(t, "Flutter", me.Course)

	saved, err := st.FindByEmail(ctx, "g@example.com")
	require.NoError(t, err)
	assert.Equal(t, students.ProviderGoogle, saved.Provider)

	svc.google = fakeVerifier{err: errors.New("bad signature")}
	_, err = svc.GoogleSignIn(ctx, "raw", "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.google = nil
	_, err = svc.GoogleSignIn(ctx, "raw", "")
	assert.ErrorIs(t, err, ErrGoogleDisabled)
}

func TestForgotPassword(t *testing.T) {
	ctx := context.Background()
	svc, st, rec := newTestService(t)
	_, err := svc.Signup(ctx, signupReq())
	require.NoError(t, err)

	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	require.NoError(t, svc.ForgotPassword(ctx, "nobody@example.com"))
	assert.Len(t, rec.Sent(), 1, "unknown email sends nothing")

	require.NoError(t, svc.ForgotPassword(ctx, "ADA@example.com"))
	sent := rec.Sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].Subject, "Password Reset")

	saved, err := st.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, saved.PasswordResetDate)
	assert.True(t, fixed.Equal(*saved.PasswordResetDate))

	_, err = svc.Login(ctx, "ada@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "old password replaced")
}

func TestAuthenticate_Failures(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	tok, err := svc.jwt.GenerateToken("ghost@example.com", RoleStudent)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, tok)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestIdentityFromClaims(t *testing.T) {
	id, err := identityFromClaims(map[string]any{"email": "a@example.com", "name": "A", "email_verified": true})
	require.NoError(t, err)
	assert.Equal(t, GoogleIdentity{Email: "a@example.com", Name: "A"}, id)

	_, err = identityFromClaims(map[string]any{"name": "A"})
	assert.Error(t, err)
	_, err = identityFromClaims(map[string]any{"email": "a@example.com", "email_verified": false})
	assert.Error(t, err)
}
