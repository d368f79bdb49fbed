package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

var knownSites = map[string]bool{
	"remotive":        true,
	"remoteok":        true,
	"lever":           true,
	"greenhouse":      true,
	"email":           true,
	"smartrecruiters": true,
}

func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		errs = append(errs, "auth.jwt_secret is required (or SECRET_KEY)")
	}
	if strings.TrimSpace(cfg.Mongo.URI) == "" {
		errs = append(errs, "mongo.uri is required (or MONGO_URI)")
	}

	if len(cfg.Refresh.Categories) == 0 {
		errs = append(errs, "refresh.categories must have at least 1 entry")
	}
	seen := map[string]bool{}
	for i, c := range cfg.Refresh.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			errs = append(errs, fmt.Sprintf("refresh.categories[%d].name is required", i))
		}
		if strings.TrimSpace(c.Query) == "" {
			errs = append(errs, fmt.Sprintf("refresh.categories[%d].query is required", i))
		}
		key := strings.ToLower(name)
		if name != "" && seen[key] {
			errs = append(errs, fmt.Sprintf("refresh.categories[%d].name %q is duplicated", i, name))
		}
		seen[key] = true
	}

	if cfg.Refresh.ResultsWanted <= 0 {
		errs = append(errs, "refresh.results_wanted must be > 0")
	}
	if cfg.Refresh.HoursOld < 0 {
		errs = append(errs, "refresh.hours_old must be >= 0")
	}
	if cfg.Refresh.FetchTimeout < 0 {
		errs = append(errs, "refresh.fetch_timeout must be >= 0")
	}
	if _, err := cron.ParseStandard(cfg.Refresh.Schedule); err != nil {
		errs = append(errs, fmt.Sprintf("refresh.schedule %q: %v", cfg.Refresh.Schedule, err))
	}

	for i, s := range cfg.Refresh.Sites {
		if !knownSites[strings.ToLower(strings.TrimSpace(s))] {
			errs = append(errs, fmt.Sprintf("refresh.sites[%d] %q is not a known site", i, s))
		}
	}
	if hasSite(cfg, "lever") && len(cfg.Sources.Lever.Companies) == 0 {
		errs = append(errs, "sources.lever.companies must not be empty when lever is enabled")
	}
	if hasSite(cfg, "greenhouse") && len(cfg.Sources.Greenhouse.Companies) == 0 {
		errs = append(errs, "sources.greenhouse.companies must not be empty when greenhouse is enabled")
	}
	if hasSite(cfg, "smartrecruiters") && len(cfg.Sources.SmartRecruiters.Companies) == 0 {
		errs = append(errs, "sources.smartrecruiters.companies must not be empty when smartrecruiters is enabled")
	}
	if hasSite(cfg, "email") {
		if strings.TrimSpace(cfg.Sources.Email.IMAPHost) == "" {
			errs = append(errs, "sources.email.imap_host is required when email is enabled")
		}
		if strings.TrimSpace(cfg.Sources.Email.Username) == "" {
			errs = append(errs, "sources.email.username is required when email is enabled")
		}
	}
	if cfg.Sources.RatePerSecond < 0 || cfg.Sources.Burst < 0 {
		errs = append(errs, "sources.rate_per_second and sources.burst must be >= 0")
	}

	if cfg.SQLite.Retention < 0 {
		errs = append(errs, "sqlite.retention must be >= 0")
	}

	if cfg.SMTP.Host != "" && cfg.SMTP.From == "" {
		errs = append(errs, "smtp.from is required when smtp.host is set")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func hasSite(cfg Config, name string) bool {
	for _, s := range cfg.Refresh.Sites {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}
