// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/cache"
	"github.com/taptosmile/taptosmile-web/internal/config"
	"github.com/taptosmile/taptosmile-web/internal/events"
	"github.com/taptosmile/taptosmile-web/internal/guard"
	"github.com/taptosmile/taptosmile-web/internal/handler"
	"github.com/taptosmile/taptosmile-web/internal/imaging"
	"github.com/taptosmile/taptosmile-web/internal/logging"
	"github.com/taptosmile/taptosmile-web/internal/middleware"
	"github.com/taptosmile/taptosmile-web/internal/overview"
	"github.com/taptosmile/taptosmile-web/internal/render"
	"github.com/taptosmile/taptosmile-web/internal/scheduler"
	"github.com/taptosmile/taptosmile-web/internal/service"
	"github.com/taptosmile/taptosmile-web/internal/session"
	"github.com/taptosmile/taptosmile-web/internal/store"
	"github.com/taptosmile/taptosmile-web/internal/version"
	"github.com/taptosmile/taptosmile-web/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "TapToSmile - public site and admin dashboard\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TTS_SESSION_SECRET     Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TTS_API_BASE_URL       Backend REST API root (default: http://127.0.0.1:8000/api)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TTS_DB_PATH            SQLite session database, empty for memory (default: ./data/sessions.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TTS_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TTS_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TTS_REDIS_URL          Redis URL for shared content caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TTS_SITE_URL           Public origin used in sitemap.xml (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("taptosmile %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}.Resolve()

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.LogLevel),
	})
	logger := slog.New(logging.NewContextHandler(textHandler))
	slog.SetDefault(logger)

	// Session database
	var db *sql.DB
	if cfg.UsePersistentSessions() {
		slog.Info("initializing session database", "path", cfg.DBPath)
		db, err = store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing database connection", "error", err)
			}
		}()

		applied, err := store.Migrate(context.Background(), db)
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		if applied > 0 {
			slog.Info("session database migrated", "applied", applied)
		}
	} else {
		slog.Warn("TTS_DB_PATH is empty, sessions are kept in memory")
	}

	sessions := session.NewStore(session.New(db, session.Options{
		Lifetime:    cfg.SessionLifetime,
		IdleTimeout: cfg.SessionIdleTimeout,
		IsDev:       cfg.IsDevelopment(),
	}))

	// Any 401 from an admin call clears the session and sends the browser to login.
	bus := events.NewBus(logger)
	bus.Subscribe(handler.SessionExpiryHandler(sessions, logger))

	adminClient, err := api.New(cfg.APIBaseURL, api.Options{
		Timeout:   cfg.APITimeout,
		Tokens:    sessions,
		Publisher: bus,
		Logger:    logger,
		UserAgent: versionInfo.UserAgent(),
	})
	if err != nil {
		return fmt.Errorf("creating admin api client: %w", err)
	}

	// The public client never carries a token, so it also runs outside requests.
	publicClient, err := api.New(cfg.APIBaseURL, api.Options{
		Timeout:   cfg.APITimeout,
		Logger:    logger,
		UserAgent: versionInfo.UserAgent(),
	})
	if err != nil {
		return fmt.Errorf("creating public api client: %w", err)
	}

	contentCache := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = contentCache.Close() }()

	content := service.NewContentService(publicClient, contentCache, time.Duration(cfg.CacheTTL)*time.Second, logger)

	sched := scheduler.New(content, cfg.APITimeout*4, logger)
	if err := sched.Start(cfg.CacheWarmSchedule); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()
	go sched.RunNow()

	templatesFS, err := web.Templates()
	if err != nil {
		return err
	}
	staticFS, err := web.Static()
	if err != nil {
		return err
	}

	renderer, err := render.New(render.Config{
		TemplatesFS: templatesFS,
		Flash:       sessions,
		Formatter:   overview.NewFormatter(cfg.Locale),
		IsDev:       cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	uploader := imaging.NewPreparer(adminClient, imaging.Options{
		MaxBytes:     cfg.UploadMaxBytes,
		MaxDimension: cfg.UploadMaxDimension,
	}, logger)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	slog.Info("login protection initialized",
		"ip_rate_limit", "0.5 req/s",
		"max_failed_attempts", 5,
		"lockout_duration", "15m",
	)

	csrfProtect := middleware.CSRF(middleware.CSRFOptions{
		AuthKey: []byte(cfg.SessionSecret),
		SiteURL: cfg.SiteURL,
		Port:    cfg.ServerPort,
		IsDev:   cfg.IsDevelopment(),
	})

	router := handler.NewRouter(handler.RouterConfig{
		Sessions: sessions,
		Guard:    guard.New(adminClient, sessions, "/admin/login", logger),
		Renderer: renderer,
		Auth:     handler.NewAuthHandler(adminClient, sessions, renderer, loginProtection, logger),
		Admin: handler.NewAdminHandler(handler.AdminConfig{
			Backend:        adminClient,
			Uploader:       uploader,
			Content:        content,
			Renderer:       renderer,
			Logger:         logger,
			MaxUploadBytes: cfg.UploadMaxBytes,
		}),
		Frontend:        handler.NewFrontendHandler(content, publicClient, renderer, logger),
		Health:          handler.NewHealthHandler(db, publicClient, versionInfo).WithCache(contentCache),
		SEO:             handler.NewSEOHandler(content, cfg.SiteURL, cfg.NoIndex, logger),
		LoginProtection: loginProtection,
		FormLimiter:     middleware.NewFormRateLimiter(0.2, 5),
		CSRF:            csrfProtect,
		Security:        middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment()).WithImageOrigin(cfg.APIBaseURL),
		Static:          staticFS,
		PublicTimeout:   30 * time.Second,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for image uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server",
			"addr", cfg.ServerAddr(),
			"env", cfg.Env,
			"api", cfg.APIBaseURL,
			"version", versionInfo.String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
