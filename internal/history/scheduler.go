package history

// scheduler.go runs the query_log retention job.
//
// The job deletes entries older than the retention window. It runs once on
// start and then every CheckInterval until the context is cancelled. A failed
// run is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls the retention job. Zero values select defaults.
type RetentionConfig struct {
	RetentionDays int           // Days to keep entries (default: 30)
	CheckInterval time.Duration // How often to run (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartRetention blocks, purging old entries periodically until ctx ends.
func (s *Store) StartRetention(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("history retention started",
		"retention_days", cfg.RetentionDays,
		"check_interval", cfg.CheckInterval.String(),
	)

	s.runRetention(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history retention stopped")
			return
		case <-ticker.C:
			s.runRetention(ctx, cfg)
		}
	}
}

func (s *Store) runRetention(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()
	cutoff := start.UTC().AddDate(0, 0, -cfg.RetentionDays)

	purged, err := s.Purge(ctx, cutoff)
	if err != nil {
		slog.Error("history purge failed", "error", err)
		return
	}
	slog.Info("purged old query history",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
