package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"jobportal-engine/internal/secrets"
)

type SMTPConfig struct {
	Host           string
	Port           int
	Username       string
	From           string
	KeyringAccount string
}

// SMTP sends over STARTTLS with PLAIN auth. The password is resolved on every
// send so a rotated keychain entry takes effect without a restart.
type SMTP struct {
	cfg      SMTPConfig
	password func() (string, error)
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("smtp host and from are required")
	}
	account := cfg.KeyringAccount
	if account == "" {
		account = cfg.Username
	}
	return &SMTP{
		cfg: cfg,
		password: func() (string, error) {
			return secrets.Lookup(account, "SENDER_PASSWORD")
		},
	}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if s.cfg.Username != "" {
		pw, err := s.password()
		if err != nil {
			return fmt.Errorf("smtp password: %w", err)
		}
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(pw),
		)
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}
