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
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/flowadmin/internal/cache"
	"github.com/olegiv/flowadmin/internal/config"
	"github.com/olegiv/flowadmin/internal/flow"
	"github.com/olegiv/flowadmin/internal/handler"
	"github.com/olegiv/flowadmin/internal/logging"
	"github.com/olegiv/flowadmin/internal/media"
	"github.com/olegiv/flowadmin/internal/service"
	"github.com/olegiv/flowadmin/internal/session"
	"github.com/olegiv/flowadmin/internal/store"
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
		_, _ = fmt.Fprintf(os.Stderr, "flowadmin - Content Tree Management Engine\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLOWADMIN_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLOWADMIN_DB_PATH         SQLite database path (default: ./data/flowadmin.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLOWADMIN_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLOWADMIN_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLOWADMIN_UPLOADS_DIR     Attachment upload directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLOWADMIN_REDIS_URL       Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLOWADMIN_DO_SEED         Seed the default admin account (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("flowadmin %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Load the content tree into memory; all edits go through the editor
	tree, err := store.LoadTree(ctx, db)
	if err != nil {
		return fmt.Errorf("loading content tree: %w", err)
	}
	slog.Info("content tree loaded",
		"categories", len(tree.Categories()),
		"languages", flow.SupportedLanguages,
	)

	files, err := media.NewLocalStore(cfg.UploadsDir)
	if err != nil {
		return fmt.Errorf("initializing upload store: %w", err)
	}

	editor := flow.NewEditor(tree, store.NewSQLStore(db), files, logger)

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	backend, err := cache.New(ctx, cache.Config{
		RedisURL:  cfg.RedisURL,
		KeyPrefix: cfg.CachePrefix,
		TTL:       time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:   cfg.CacheMaxSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("error closing cache backend", "error", err)
		}
	}()
	snapshots := cache.NewSnapshotCache(backend, flow.SupportedLanguages,
		time.Duration(cfg.CacheTTL)*time.Second)

	if defaultLang, err := store.New(db).GetDefaultLanguage(ctx); err == nil {
		slog.Info("default content language", "language", defaultLang.Code)
	}

	events := service.NewEventService(db)

	// Retention sweep: drop event rows older than 90 days, once a day
	sweepDone := make(chan struct{})
	defer close(sweepDone)
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := events.DeleteOldEvents(context.Background(), 90*24*time.Hour); err != nil {
					slog.Warn("event retention sweep failed", "error", err)
				}
			case <-sweepDone:
				return
			}
		}
	}()

	h := handler.New(handler.Config{
		Editor:     editor,
		DB:         db,
		Sessions:   sessionManager,
		Events:     events,
		Snapshots:  snapshots,
		Files:      files,
		Logger:     logger,
		UploadsDir: cfg.UploadsDir,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           h.Routes(cfg.IsDevelopment()),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
