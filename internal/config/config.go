// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"jobportal-engine/internal/logger"
)

// Category is one named search group. Order in the config is the order the
// aggregator processes them, so earlier categories win duplicate listings.
type Category struct {
	Name     string   `yaml:"name"`
	Query    string   `yaml:"query"`
	Keywords []string `yaml:"keywords"`
}

type Company struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

type Config struct {
	App struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Logging logger.Config `yaml:"logging"`

	Refresh struct {
		Schedule      string        `yaml:"schedule"`
		Categories    []Category    `yaml:"categories"`
		ResultsWanted int           `yaml:"results_wanted"`
		HoursOld      int           `yaml:"hours_old"`
		Region        string        `yaml:"region"`
		Sites         []string      `yaml:"sites"`
		FetchTimeout  time.Duration `yaml:"fetch_timeout"`
		ExportPath    string        `yaml:"export_path"`
	} `yaml:"refresh"`

	Sources struct {
		Remotive struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"remotive"`
		RemoteOK struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"remoteok"`
		Lever struct {
			Companies []Company `yaml:"companies"`
		} `yaml:"lever"`
		Greenhouse struct {
			Companies []Company `yaml:"companies"`
		} `yaml:"greenhouse"`
		SmartRecruiters struct {
			Companies []Company `yaml:"companies"`
		} `yaml:"smartrecruiters"`
		Email struct {
			IMAPHost       string `yaml:"imap_host"`
			IMAPPort       int    `yaml:"imap_port"`
			Username       string `yaml:"username"`
			Mailbox        string `yaml:"mailbox"`
			KeyringAccount string `yaml:"keyring_account"`
		} `yaml:"email"`
		CompaniesFile string  `yaml:"companies_file"`
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"sources"`

	Mongo struct {
		URI                string `yaml:"uri"`
		Database           string `yaml:"database"`
		StudentsCollection string `yaml:"students_collection"`
	} `yaml:"mongo"`

	SQLite struct {
		Path      string        `yaml:"path"`
		Retention time.Duration `yaml:"retention"`
	} `yaml:"sqlite"`

	Auth struct {
		JWTSecret          string        `yaml:"jwt_secret"`
		JWTExpiry          time.Duration `yaml:"jwt_expiry"`
		GoogleClientID     string        `yaml:"google_client_id"`
		GoogleClientSecret string        `yaml:"google_client_secret"`
		GoogleRedirectURL  string        `yaml:"google_redirect_url"`
	} `yaml:"auth"`

	SMTP struct {
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		Username       string `yaml:"username"`
		From           string `yaml:"from"`
		KeyringAccount string `yaml:"keyring_account"`
	} `yaml:"smtp"`
}

const (
	defaultPort          = 8000
	defaultResultsWanted = 20
	defaultHoursOld      = 72
	defaultSchedule      = "@every 30m"
	defaultJWTExpiry     = 24 * time.Hour
	defaultSMTPPort      = 587
	defaultIMAPPort      = 993
	defaultRetention     = 90 * 24 * time.Hour
)

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	overrideFromEnv(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Host == "" {
		cfg.App.Host = "127.0.0.1"
	}
	if cfg.App.Port == 0 {
		cfg.App.Port = defaultPort
	}
	if cfg.Refresh.Schedule == "" {
		cfg.Refresh.Schedule = defaultSchedule
	}
	if cfg.Refresh.ResultsWanted == 0 {
		cfg.Refresh.ResultsWanted = defaultResultsWanted
	}
	if cfg.Refresh.HoursOld == 0 {
		cfg.Refresh.HoursOld = defaultHoursOld
	}
	if len(cfg.Refresh.Sites) == 0 {
		cfg.Refresh.Sites = []string{"remotive", "remoteok"}
	}
	if cfg.Sources.RatePerSecond == 0 {
		cfg.Sources.RatePerSecond = 1.0
	}
	if cfg.Sources.Burst == 0 {
		cfg.Sources.Burst = 2
	}
	if cfg.Sources.Email.IMAPPort == 0 {
		cfg.Sources.Email.IMAPPort = defaultIMAPPort
	}
	if cfg.Sources.Email.Mailbox == "" {
		cfg.Sources.Email.Mailbox = "INBOX"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "student_job_portal"
	}
	if cfg.Mongo.StudentsCollection == "" {
		cfg.Mongo.StudentsCollection = "students"
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "listings.db"
	}
	if cfg.SQLite.Retention == 0 {
		cfg.SQLite.Retention = defaultRetention
	}
	if cfg.Auth.JWTExpiry == 0 {
		cfg.Auth.JWTExpiry = defaultJWTExpiry
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = defaultSMTPPort
	}
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("PORTAL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = port
		}
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = port
		}
	}
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		cfg.SMTP.Username = v
		if cfg.SMTP.From == "" {
			cfg.SMTP.From = v
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}
