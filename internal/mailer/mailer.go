// Package mailer sends account mail (welcome, password reset) over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"jobportal-engine/internal/logger"
)

const Portal = "Student Job Portal"

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type mailData struct {
	Portal   string
	Name     string
	Email    string
	Course   string
	Password string
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Student"
	}
	return name
}

// Welcome builds the signup confirmation mail.
func Welcome(to, name, course string) (Message, error) {
	body, err := execute("welcome.html", mailData{Portal: Portal, Name: displayName(name), Email: to, Course: course})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Welcome to " + Portal, HTML: body}, nil
}

// PasswordReset builds the mail carrying a temporary password.
func PasswordReset(to, name, tempPassword string) (Message, error) {
	body, err := execute("reset.html", mailData{Portal: Portal, Name: displayName(name), Password: tempPassword})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Password Reset Request - " + Portal, HTML: body}, nil
}

func execute(name string, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

type nopSender struct{ log logger.Logger }

// NewNop returns a Sender that only logs. Used when SMTP is not configured.
func NewNop(log logger.Logger) Sender {
	if log == nil {
		log = logger.NewNop()
	}
	return nopSender{log: log}
}

func (n nopSender) Send(_ context.Context, msg Message) error {
	n.log.Info("mail skipped (smtp not configured)",
		logger.String("to", msg.To),
		logger.String("subject", msg.Subject),
	)
	return nil
}

// Recorder keeps sent messages in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
