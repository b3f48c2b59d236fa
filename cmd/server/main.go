package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/linequery/internal/config"
	"github.com/JonMunkholm/linequery/internal/history"
	"github.com/JonMunkholm/linequery/internal/logging"
	"github.com/JonMunkholm/linequery/internal/query"
	"github.com/JonMunkholm/linequery/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"data_dir", cfg.Data.Dir,
		"query_max_concurrent", cfg.Query.MaxConcurrent,
		"history_enabled", cfg.HistoryEnabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	if info, err := os.Stat(cfg.Data.Dir); err != nil || !info.IsDir() {
		slog.Warn("data directory is not readable, every query will report not found", "dir", cfg.Data.Dir)
	}

	opts := []query.Option{
		query.WithLimiter(query.NewQueryLimiter(cfg.Query.MaxConcurrent, cfg.Query.MaxWait)),
	}

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	var hist web.HistoryReader
	if cfg.HistoryEnabled() {
		pool, store, err := openHistory(jobCtx, cfg)
		if err != nil {
			slog.Error("failed to open query history", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		opts = append(opts, query.WithRecorder(store))
		hist = store

		go store.StartRetention(jobCtx, history.RetentionConfig{
			RetentionDays: cfg.History.RetentionDays,
			CheckInterval: cfg.History.CheckInterval,
		})
	}

	service := query.NewService(query.NewSource(cfg.Data.Dir, cfg.Query.MaxLineBytes), opts...)
	server := web.NewServer(service, cfg, hist)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running queries to complete (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for queries to complete", "active", status.Active)
			if err := service.WaitForQueries(shutdownCtx); err != nil {
				slog.Warn("queries did not complete in time", "error", err)
			} else {
				slog.Info("all queries completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openHistory connects to PostgreSQL and prepares the query history table.
func openHistory(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, *history.Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store := history.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, store, nil
}
