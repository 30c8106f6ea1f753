package store

import (
	"context"
	"log/slog"
	"time"
)

// Expirer is implemented by stores that need explicit retention sweeps.
// The Redis store relies on key TTLs instead.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// StartCleanup sweeps expired reports every interval until ctx is cancelled.
// A failed sweep is logged and retried on the next tick.
func StartCleanup(ctx context.Context, s Expirer, interval time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := s.DeleteExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.WarnContext(ctx, "report cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.InfoContext(ctx, "expired reports removed", "count", removed)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
