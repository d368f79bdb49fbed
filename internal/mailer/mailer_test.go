package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-engine/internal/logger"
)

func TestWelcome(t *testing.T) {
	msg, err := Welcome("ada@example.com", "", "React")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Welcome")
	assert.Contains(t, msg.HTML, "Dear Student")
	assert.Contains(t, msg.HTML, "React")
}

func TestPasswordReset_EscapesAndCarriesPassword(t *testing.T) {
	msg, err := PasswordReset("ada@example.com", "<Ada>", "tmp-Pass_123")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.HTML))
	require.NoError(t, err)
	assert.Equal(t, "tmp-Pass_123", doc.Find("#temp-password").Text())
	assert.NotContains(t, msg.HTML, "<Ada>")
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Send(context.Background(), Message{To: "a@example.com"}))
	assert.Len(t, r.Sent(), 1)

	r.Err = errors.New("down")
	assert.Error(t, r.Send(context.Background(), Message{To: "b@example.com"}))
	assert.Len(t, r.Sent(), 1)
}

func TestNop(t *testing.T) {
	assert.NoError(t, NewNop(logger.NewNop()).Send(context.Background(), Message{To: "a@example.com"}))
}

func TestNewSMTP_RequiresHostAndFrom(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{Host: "smtp.example.com"})
	assert.Error(t, err)

	s, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
