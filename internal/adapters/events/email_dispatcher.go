package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/ports"
)

// EmailDispatcherConfig tunes the email outbox loop. Zero values fall back to defaults.
type EmailDispatcherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	ClaimTTL     time.Duration
	MaxAttempts  int
}

func (c EmailDispatcherConfig) withDefaults() EmailDispatcherConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	return c
}

type deliveryOutcome string

const (
	outcomeSent         deliveryOutcome = "sent"
	outcomeRetry        deliveryOutcome = "retry"
	outcomeDeadLettered deliveryOutcome = "dead_lettered"
)

// EmailDispatcher drains email_outbox: login links, purchase confirmations and contact
// notifications queued by the service. Rows that cannot be parsed are dead-lettered at
// once, transport failures are retried until MaxAttempts.
type EmailDispatcher struct {
	logger    *slog.Logger
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	cfg       EmailDispatcherConfig
	now       func() time.Time
}

func NewEmailDispatcher(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, cfg EmailDispatcherConfig) *EmailDispatcher {
	return &EmailDispatcher{
		logger:    logger.With("module", "events.email_dispatcher", "layer", "adapter"),
		outbox:    outbox,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run polls until ctx is cancelled. A failed batch is logged and retried next tick.
func (d *EmailDispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := d.dispatchBatch(ctx); err != nil {
			d.logger.ErrorContext(ctx, "email batch failed",
				"operation", "dispatch_batch",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *EmailDispatcher) dispatchBatch(ctx context.Context) error {
	claimToken := uuid.NewString()
	records, err := d.outbox.ClaimUnpublished(ctx, d.cfg.BatchSize, claimToken, d.now().Add(d.cfg.ClaimTTL))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	counts := map[deliveryOutcome]int{}
	for _, rec := range records {
		outcome := d.deliver(ctx, claimToken, rec)
		counts[outcome]++
		emailDeliveriesTotal.WithLabelValues(rec.EventType, string(outcome)).Inc()
	}
	d.logger.InfoContext(ctx, "email batch dispatched",
		"operation", "dispatch_batch",
		"outcome", "success",
		"batch_size", len(records),
		"sent_count", counts[outcomeSent],
		"retry_count", counts[outcomeRetry],
		"dead_lettered_count", counts[outcomeDeadLettered],
	)
	return nil
}

// deliver sends one claimed row and settles it. Settlement errors are logged only: the
// claim expires and the row is picked up again.
func (d *EmailDispatcher) deliver(ctx context.Context, claimToken string, rec ports.OutboxRecord) deliveryOutcome {
	now := d.now()
	if rec.RetryCount >= d.cfg.MaxAttempts {
		d.settle(ctx, rec, "mark_dead_lettered", d.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, "attempt budget exhausted before send", now))
		return outcomeDeadLettered
	}

	err := d.publisher.Publish(ctx, rec.EventType, rec.Payload)
	if err == nil {
		d.settle(ctx, rec, "mark_published", d.outbox.MarkPublished(ctx, rec.OutboxID, claimToken, now))
		return outcomeSent
	}

	attempts := rec.RetryCount + 1
	fields := []any{
		"operation", "deliver_email",
		"outcome", "failure",
		"outbox_id", rec.OutboxID,
		"event_type", rec.EventType,
		"attempt", attempts,
		"error", err,
	}
	if errors.Is(err, errUndeliverable) || attempts >= d.cfg.MaxAttempts {
		d.logger.ErrorContext(ctx, "email dead-lettered", fields...)
		d.settle(ctx, rec, "mark_dead_lettered", d.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, err.Error(), now))
		return outcomeDeadLettered
	}
	d.logger.WarnContext(ctx, "email send failed, will retry", fields...)
	d.settle(ctx, rec, "mark_failed", d.outbox.MarkFailed(ctx, rec.OutboxID, claimToken, err.Error(), now))
	return outcomeRetry
}

func (d *EmailDispatcher) settle(ctx context.Context, rec ports.OutboxRecord, operation string, err error) {
	if err == nil {
		return
	}
	d.logger.WarnContext(ctx, "outbox row not settled",
		"operation", operation,
		"outcome", "failure",
		"outbox_id", rec.OutboxID,
		"error", err,
	)
}
