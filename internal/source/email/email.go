// Package email reads LinkedIn-style job alert emails from an IMAP mailbox
// and turns each job card into a record.
package email

import (
	"context"
	"time"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/source/util"
)

const maxMessages = 200

type Config struct {
	Host     string
	Port     int
	Username string
	Mailbox  string
	// Password is resolved per search so a rotated keychain entry is picked up.
	Password func() (string, error)
}

type Source struct {
	cfg  Config
	log  logger.Logger
	dial func(ctx context.Context) (Mailbox, error)
	now  func() time.Time
}

func New(cfg Config, log logger.Logger) *Source {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Source{cfg: cfg, log: log, now: time.Now}
	s.dial = func(ctx context.Context) (Mailbox, error) {
		pw := ""
		if cfg.Password != nil {
			var err error
			if pw, err = cfg.Password(); err != nil {
				return nil, err
			}
		}
		return DialIMAP(ctx, cfg.Host, cfg.Port, cfg.Username, pw, cfg.Mailbox)
	}
	return s
}

func (s *Source) Name() string { return "email" }

func (s *Source) Search(ctx context.Context, q domain.Query) ([]domain.JobRecord, error) {
	mb, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := mb.Close(); err != nil {
			s.log.Debug("imap logout", logger.Error(err))
		}
	}()

	var since time.Time
	if q.HoursOld > 0 {
		since = s.now().Add(-time.Duration(q.HoursOld) * time.Hour)
	}
	msgs, err := mb.Search(ctx, q.Term, since, maxMessages)
	if err != nil {
		return nil, err
	}

	var out []domain.JobRecord
	for _, m := range msgs {
		alerts, err := ParseAlertHTML(htmlBody(m.Raw))
		if err != nil {
			s.log.Warn("alert parse failed", logger.Int64("uid", int64(m.UID)), logger.Error(err))
			continue
		}
		for _, a := range alerts {
			if !util.MatchesRegion(a.Location, q.Region) {
				continue
			}
			out = append(out, domain.JobRecord{
				Title:      a.Title,
				Company:    a.Company,
				Location:   util.NormalizeLocation(a.Location),
				Site:       s.Name(),
				DatePosted: util.FormatDate(m.Date),
				JobURL:     a.URL,
			})
			if q.Results > 0 && len(out) >= q.Results {
				return out, nil
			}
		}
	}
	s.log.Debug("email search done",
		logger.String("term", q.Term),
		logger.Int("messages", len(msgs)),
		logger.Int("rows", len(out)))
	return out, nil
}
