package service

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically expires old dedup ledger rows. Expiry is safe
// because upstream stops retrying deliveries long before the retention
// window ends.
type Janitor struct {
	idempotency *Idempotency
	logger      *slog.Logger
	interval    time.Duration
	retention   time.Duration
}

// NewJanitor creates the background cleaner.
func NewJanitor(idem *Idempotency, logger *slog.Logger, interval, retention time.Duration) *Janitor {
	return &Janitor{idempotency: idem, logger: logger, interval: interval, retention: retention}
}

// Run sweeps on the configured interval until ctx is cancelled. One
// sweep runs immediately at startup.
func (j *Janitor) Run(ctx context.Context) error {
	j.sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	removed, err := j.idempotency.Cleanup(ctx, j.retention)
	if err != nil {
		j.logger.Error("ledger cleanup failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		j.logger.Info("ledger cleanup done", slog.Int64("removed", removed))
	}
}
