package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Message is the subset of a mailbox message the alert parser needs.
type Message struct {
	UID     uint32
	Subject string
	Date    time.Time
	// Raw is the full RFC822 message, fetched with BODY.PEEK[] so it is not marked \Seen.
	Raw []byte
}

// Mailbox searches one selected mailbox.
type Mailbox interface {
	Search(ctx context.Context, term string, since time.Time, max int) ([]Message, error)
	Close() error
}

type imapMailbox struct {
	c *imapclient.Client
}

// DialIMAP connects over TLS, logs in and selects mailbox read-only.
func DialIMAP(ctx context.Context, host string, port int, username, password, mailbox string) (Mailbox, error) {
	if host == "" {
		return nil, errors.New("imap host is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}
	if port == 0 {
		port = 993
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap select %q: %w", mailbox, err)
	}
	return &imapMailbox{c: c}, nil
}

// Search runs UID SEARCH TEXT term SINCE since and fetches up to max of the
// newest matches.
func (m *imapMailbox) Search(ctx context.Context, term string, since time.Time, max int) ([]Message, error) {
	stop := context.AfterFunc(ctx, func() { _ = m.c.Close() })
	defer stop()

	criteria := &imap.SearchCriteria{}
	if term != "" {
		criteria.Text = []string{term}
	}
	if !since.IsZero() {
		criteria.Since = since
	}

	data, err := m.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}
	uids := data.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	slices.Reverse(uids)
	if max > 0 && len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	fetch := m.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetch.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		msg := fetch.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}
		em := Message{UID: uint32(buf.UID), Date: buf.InternalDate}
		if buf.Envelope != nil {
			em.Subject = buf.Envelope.Subject
			if !buf.Envelope.Date.IsZero() {
				em.Date = buf.Envelope.Date
			}
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			em.Raw = append([]byte(nil), b...)
		}
		out = append(out, em)
	}
	if err := fetch.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

func (m *imapMailbox) Close() error {
	if err := m.c.Logout().Wait(); err != nil {
		_ = m.c.Close()
		return err
	}
	return m.c.Close()
}
