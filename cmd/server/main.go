package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonMunkholm/sheetfilter/internal/config"
	"github.com/JonMunkholm/sheetfilter/internal/core"
	"github.com/JonMunkholm/sheetfilter/internal/database"
	"github.com/JonMunkholm/sheetfilter/internal/logging"
	"github.com/JonMunkholm/sheetfilter/internal/source"
	"github.com/JonMunkholm/sheetfilter/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists; real environment variables win
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "code", core.MapError(err).Code)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.Component("startup")
	logger.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	history, closeHistory := openHistory(ctx, cfg, logger)
	defer closeHistory()

	loader := source.NewLoader(source.Options{
		Timeout:    cfg.Source.Timeout,
		MaxBytes:   cfg.Source.MaxBytes,
		CacheTTL:   cfg.Filter.CacheTTL,
		MaxEntries: cfg.Filter.CacheMaxEntries,
		Normalize:  core.NormalizeOptions{Threshold: cfg.Filter.NumericThreshold},
	}, history)

	// The configured source is never evicted by user-entered URLs
	def := cfg.Descriptor()
	loader.Pin(def)

	// Warm the cache. A failure here is shown in the UI, not fatal.
	if entry, err := loader.Load(ctx, def); err != nil {
		logger.Warn("initial load failed", "source", def.Label(), "error", err)
	} else {
		logger.Info("initial load complete", "source", entry.Label, "rows", entry.Table.Len())
	}

	server := web.NewServer(loader, cfg)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		closeHistory()
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}

// openHistory returns the Postgres history store when DATABASE_URL is set,
// and an in-memory ring buffer otherwise or when the database is unreachable.
func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.HistoryStore, func()) {
	memory := core.NewMemoryHistory(cfg.History.Limit)
	if cfg.History.DatabaseURL == "" {
		return memory, func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := database.Connect(connectCtx, cfg.History.DatabaseURL, database.PoolOptions{MaxConns: 4})
	if err != nil {
		logger.Warn("history database unavailable, keeping history in memory", "error", err)
		return memory, func() {}
	}

	store, err := database.NewHistoryStore(connectCtx, pool)
	if err != nil {
		pool.Close()
		logger.Warn("history table setup failed, keeping history in memory", "error", err)
		return memory, func() {}
	}

	logger.Info("load history stored in database")
	return store, pool.Close
}
