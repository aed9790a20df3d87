package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionSweeper evicts editor sessions that have been idle too long.
type SessionSweeper interface {
	SweepIdle(olderThan time.Time) int
}

// StartSessionSweeper runs the eviction loop until the context is
// cancelled. Sessions hold no durable state, so eviction only costs the
// browser a re-fetch.
func StartSessionSweeper(ctx context.Context, log *zap.Logger, store SessionSweeper, ttl, interval time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := store.SweepIdle(time.Now().Add(-ttl)); evicted > 0 {
					log.Info("evicted idle editor sessions", zap.Int("count", evicted))
				}
			}
		}
	}()
}
