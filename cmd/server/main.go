package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/polyhub/studyhub/internal/assistant"
	"github.com/polyhub/studyhub/internal/catalog"
	"github.com/polyhub/studyhub/internal/platform/cache"
	"github.com/polyhub/studyhub/internal/platform/config"
	"github.com/polyhub/studyhub/internal/platform/database"
	"github.com/polyhub/studyhub/internal/server"
	"github.com/polyhub/studyhub/internal/study"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	logger.Info("catalog loaded", "path", cfg.CatalogPath, "departments", len(cat.Departments()))

	// Study state: Postgres when configured, in-memory otherwise.
	var store study.Store = study.NewMemoryStore()
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store, err = study.NewPostgresStore(ctx, db.Pool)
		if err != nil {
			logger.Error("failed to prepare study store", "error", err)
			os.Exit(1)
		}
		logger.Info("study state persisted to postgres")
	} else {
		logger.Warn("no database configured, study state is in-memory only")
	}

	// Cross-session sync rides on Redis pub/sub when configured.
	var syncer *study.Syncer
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			logger.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer c.Close()
		syncer = study.NewSyncer(c.Client, logger)
		logger.Info("cross-session sync enabled")
	}

	var provider assistant.Provider
	if cfg.HasAIProvider() {
		provider = assistant.NewGoogleProvider(cfg.AI.Google.APIKey)
		logger.Info("assistant enabled", "provider", "google")
	} else {
		logger.Warn("no AI provider configured, assistant endpoints disabled")
	}

	srv := server.New(cat, store, syncer, provider, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
