package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"jobportal-engine/internal/aggregate"
	"jobportal-engine/internal/auth"
	"jobportal-engine/internal/classify"
	"jobportal-engine/internal/config"
	"jobportal-engine/internal/events"
	"jobportal-engine/internal/httpapi"
	"jobportal-engine/internal/jobcache"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/mailer"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/scheduler"
	"jobportal-engine/internal/secrets"
	"jobportal-engine/internal/source"
	"jobportal-engine/internal/store"
	"jobportal-engine/internal/students"
)

type options struct {
	dataDir       string
	defaultConfig string
	once          bool
	memStudents   bool
	setSecret     string
	deleteSecret  string
}

func main() {
	var o options
	flag.StringVar(&o.dataDir, "data", envOr("PORTAL_DATA_DIR", "."), "data directory (config, database, lock)")
	flag.StringVar(&o.defaultConfig, "config", filepath.Join("config", "config.yml"), "default config copied into the data dir on first run")
	flag.BoolVar(&o.once, "once", false, "run a single refresh, print a summary and exit")
	flag.BoolVar(&o.memStudents, "memory-students", false, "keep student accounts in memory instead of MongoDB")
	flag.StringVar(&o.setSecret, "set-secret", "", "store a password read from stdin under this keychain account and exit")
	flag.StringVar(&o.deleteSecret, "delete-secret", "", "remove this keychain account and exit")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	if err := run(o); err != nil {
		fmt.Fprintln(os.Stderr, "portal:", err)
		os.Exit(1)
	}
}

func run(o options) error {
	switch {
	case o.setSecret != "":
		pw, err := readLine(os.Stdin)
		if err != nil {
			return err
		}
		if err := secrets.Set(o.setSecret, pw); err != nil {
			return fmt.Errorf("set secret: %w", err)
		}
		fmt.Printf("stored password for %q in the %s keychain\n", o.setSecret, secrets.KeyringService)
		return nil
	case o.deleteSecret != "":
		if err := secrets.Delete(o.deleteSecret); err != nil {
			return fmt.Errorf("delete secret: %w", err)
		}
		fmt.Printf("removed %q from the %s keychain\n", o.deleteSecret, secrets.KeyringService)
		return nil
	}

	cfgPath, err := config.EnsureUserConfig(o.dataDir, o.defaultConfig)
	if err != nil {
		return fmt.Errorf("config bootstrap: %w", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = o.dataDir
	}
	if err := config.OverlayCompanies(&cfg, inDataDir(cfg, cfg.Sources.CompaniesFile)); err != nil {
		return fmt.Errorf("companies overlay: %w", err)
	}
	if o.memStudents && cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "memory://"
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("config loaded", logger.String("path", cfgPath), logger.Strings("sites", cfg.Refresh.Sites))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	board, err := source.FromConfig(cfg, nil, log.With(logger.String("component", "source")))
	if err != nil {
		return err
	}
	hub := events.NewHub()
	cache := jobcache.New()
	agg := aggregate.New(aggregate.ConfigFrom(cfg), aggregate.Deps{
		Source:  board,
		Cache:   cache,
		Hub:     hub,
		Metrics: m,
		Log:     log.With(logger.String("component", "aggregate")),
	})

	if o.once {
		return runOnce(ctx, agg, cache)
	}

	lock := flock.New(filepath.Join(cfg.App.DataDir, "portal.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("data dir lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another portal instance is using %s", cfg.App.DataDir)
	}
	defer func() { _ = lock.Unlock() }()

	db, err := store.Open(ctx, inDataDir(cfg, cfg.SQLite.Path))
	if err != nil {
		return err
	}
	defer db.Close()

	studentStore, closeStudents, err := openStudents(ctx, cfg, o.memStudents, log)
	if err != nil {
		return err
	}
	defer closeStudents()

	var sender mailer.Sender = mailer.NewNop(log)
	if cfg.SMTP.Host != "" {
		smtp, err := mailer.NewSMTP(mailer.SMTPConfig{
			Host:           cfg.SMTP.Host,
			Port:           cfg.SMTP.Port,
			Username:       cfg.SMTP.Username,
			From:           cfg.SMTP.From,
			KeyringAccount: cfg.SMTP.KeyringAccount,
		})
		if err != nil {
			return err
		}
		sender = smtp
	}

	verifier := auth.NewGoogleVerifier(cfg.Auth.GoogleClientID)
	authSvc := auth.NewService(auth.Deps{
		Students: studentStore,
		JWT:      auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry),
		Mailer:   sender,
		Google:   verifier,
		Log:      log,
	})
	var google httpapi.GoogleFlow
	if a := cfg.Auth; a.GoogleClientID != "" && a.GoogleClientSecret != "" && a.GoogleRedirectURL != "" {
		google = auth.NewGoogleOAuth(a.GoogleClientID, a.GoogleClientSecret, a.GoogleRedirectURL, verifier)
	}

	worker := jobcache.NewWorker(agg.Refresh, log.With(logger.String("component", "worker")))
	if err := worker.Start(ctx); err != nil {
		return err
	}
	defer worker.Stop()

	sched := scheduler.New(ctx, log.With(logger.String("component", "scheduler")))
	if err := sched.Add(cfg.Refresh.Schedule, "refresh", func(context.Context) error {
		if !worker.Trigger() {
			log.Debug("scheduled refresh collapsed into a queued one")
		}
		return nil
	}); err != nil {
		return err
	}
	if cfg.SQLite.Retention > 0 {
		if err := sched.Add("@daily", "listings-retention", func(ctx context.Context) error {
			n, err := db.CleanupOldListings(ctx, cfg.SQLite.Retention)
			if err == nil && n > 0 {
				log.Info("old listings removed", logger.Int64("count", n))
			}
			return err
		}); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	handler := httpapi.NewHandler(httpapi.Deps{
		Cache:    cache,
		Refresh:  worker,
		Status:   agg,
		Hub:      hub,
		Auth:     authSvc,
		Google:   google,
		Listings: db,
		Classify: classify.New(cfg.Refresh.Categories),
		Search:   board,
		Metrics:  m,
		Gatherer: reg,
		Log:      log.With(logger.String("component", "http")),
	})

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}
	srv := httpapi.NewServer(cfg.Addr(), handler)
	srv.RegisterOnShutdown(hub.Close)
	return httpapi.Serve(ctx, srv, ln, log, httpapi.DefaultShutdownTimeout)
}

func runOnce(ctx context.Context, agg *aggregate.Aggregator, cache *jobcache.Cache) error {
	ok := agg.Refresh(ctx)
	st := agg.Status()
	if !ok {
		return fmt.Errorf("refresh failed: %s", st.LastError)
	}
	snap := cache.Get()
	fmt.Printf("installed %d records at %s\n", len(snap.Records), snap.UpdatedAt.Format(time.RFC3339))
	if len(st.FailedCategories) > 0 {
		fmt.Printf("failed categories: %s\n", strings.Join(st.FailedCategories, ", "))
	}
	return nil
}

func openStudents(ctx context.Context, cfg config.Config, inMemory bool, log logger.Logger) (students.Store, func(), error) {
	if inMemory {
		log.Warn("student accounts are kept in memory and lost on exit")
		return students.NewMemoryStore(), func() {}, nil
	}
	client, err := students.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}
	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.StudentsCollection)
	st, err := students.NewMongoStore(ctx, coll)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return st, closeFn, nil
}

// inDataDir resolves relative paths against the data dir. Empty stays empty.
func inDataDir(cfg config.Config, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.App.DataDir, p)
}

func readLine(f *os.File) (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
