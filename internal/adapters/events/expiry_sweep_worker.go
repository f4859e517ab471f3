package events

import (
	"context"
	"log/slog"
	"time"
)

// PurchaseExpirer flips completed purchases past their window to expired.
type PurchaseExpirer interface {
	ExpireOverduePurchases(ctx context.Context) (int64, error)
}

// ExpirySweepWorker periodically marks overdue purchases as expired.
// It keeps stored status in line with expires_at. Download answers are the same before and after a sweep.
type ExpirySweepWorker struct {
	logger   *slog.Logger
	service  PurchaseExpirer
	interval time.Duration
}

func NewExpirySweepWorker(logger *slog.Logger, service PurchaseExpirer, interval time.Duration) *ExpirySweepWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpirySweepWorker{
		logger:   logger,
		service:  service,
		interval: interval,
	}
}

func (w *ExpirySweepWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweepOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ExpirySweepWorker) sweepOnce(ctx context.Context) {
	n, err := w.service.ExpireOverduePurchases(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "purchase expiry sweep failed",
			"module", "events.expiry_sweep_worker",
			"layer", "adapter",
			"operation", "expire_overdue_purchases",
			"outcome", "failure",
			"error", err,
		)
		return
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "purchases expired",
			"module", "events.expiry_sweep_worker",
			"layer", "adapter",
			"operation", "expire_overdue_purchases",
			"outcome", "success",
			"expired_count", n,
		)
	}
}
