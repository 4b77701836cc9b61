// Package maintenance runs periodic background tasks as Go tickers. The
// service is already a persistent process (required for LISTEN/NOTIFY),
// so scheduled housekeeping is driven from Go rather than pg_cron.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/kohizeri/smartcollar-api/internal/store"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration // Notification-log purge cadence
	Retention       time.Duration // How long log entries are kept
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 30 * time.Minute,
		Retention:       30 * 24 * time.Hour,
	}
}

// Start launches the maintenance tickers. Blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, st store.Store, cfg Config, logger *slog.Logger) {
	if cfg.CleanupInterval <= 0 {
		logger.Info("maintenance disabled")
		return
	}

	logger.Info("maintenance tickers started",
		"cleanup", cfg.CleanupInterval, "retention", cfg.Retention)

	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			purgeNotifications(ctx, st, cfg.Retention, logger)
		case <-ctx.Done():
			logger.Info("maintenance tickers stopped")
			return
		}
	}
}

// purgeNotifications removes notification-log entries older than the
// retention period. The log is append-only from the core's perspective;
// this is the only deleter.
func purgeNotifications(ctx context.Context, st store.Store, retention time.Duration, logger *slog.Logger) {
	purged, err := st.PurgeNotifications(ctx, retention)
	if err != nil {
		logger.Warn("cleanup: failed to purge old notifications", "error", err)
		return
	}
	if purged > 0 {
		logger.Info("cleanup: purged old notifications", "count", purged)
	}
}
