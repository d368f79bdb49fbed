package source

import (
	"fmt"
	"net/http"
	"strings"

	"jobportal-engine/internal/config"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/secrets"
	"jobportal-engine/internal/source/email"
	"jobportal-engine/internal/source/greenhouse"
	"jobportal-engine/internal/source/lever"
	"jobportal-engine/internal/source/remoteok"
	"jobportal-engine/internal/source/remotive"
	"jobportal-engine/internal/source/smartrecruiters"
	"jobportal-engine/internal/source/util"
)

// FromConfig builds a Board over refresh.sites, in the configured order.
func FromConfig(cfg config.Config, hc *http.Client, log logger.Logger) (*Board, error) {
	if hc == nil {
		hc = util.NewClient()
	}
	if log == nil {
		log = logger.NewNop()
	}
	lim := util.NewHostLimiter(cfg.Sources.RatePerSecond, cfg.Sources.Burst)

	var sites []Source
	for _, name := range cfg.Refresh.Sites {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "remotive":
			sites = append(sites, remotive.New(cfg.Sources.Remotive.BaseURL, hc, lim))
		case "remoteok":
			sites = append(sites, remoteok.New(cfg.Sources.RemoteOK.BaseURL, hc, lim))
		case "lever":
			sites = append(sites, lever.New(lever.Config{
				Companies: companies[lever.Company](cfg.Sources.Lever.Companies, func(slug, name string) lever.Company {
					return lever.Company{Slug: slug, Name: name}
				}),
			}, hc, lim, log.With(logger.String("site", "lever"))))
		case "greenhouse":
			sites = append(sites, greenhouse.New(greenhouse.Config{
				Companies: companies[greenhouse.Company](cfg.Sources.Greenhouse.Companies, func(slug, name string) greenhouse.Company {
					return greenhouse.Company{Slug: slug, Name: name}
				}),
			}, hc, lim, log.With(logger.String("site", "greenhouse"))))
		case "smartrecruiters":
			sites = append(sites, smartrecruiters.New(smartrecruiters.Config{
				Companies: companies[smartrecruiters.Company](cfg.Sources.SmartRecruiters.Companies, func(slug, name string) smartrecruiters.Company {
					return smartrecruiters.Company{Slug: slug, Name: name}
				}),
			}, hc, lim, log.With(logger.String("site", "smartrecruiters"))))
		case "email":
			ec := cfg.Sources.Email
			sites = append(sites, email.New(email.Config{
				Host:     ec.IMAPHost,
				Port:     ec.IMAPPort,
				Username: ec.Username,
				Mailbox:  ec.Mailbox,
				Password: func() (string, error) {
					return secrets.Lookup(ec.KeyringAccount, "IMAP_PASSWORD")
				},
			}, log.With(logger.String("site", "email"))))
		default:
			return nil, fmt.Errorf("unknown site %q", name)
		}
	}
	return NewBoard(log, sites...), nil
}

// companies drops entries without a slug and defaults names to the slug.
func companies[T any](in []config.Company, mk func(slug, name string) T) []T {
	out := make([]T, 0, len(in))
	for _, c := range in {
		slug := strings.TrimSpace(c.Slug)
		if slug == "" {
			continue
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = slug
		}
		out = append(out, mk(slug, name))
	}
	return out
}
