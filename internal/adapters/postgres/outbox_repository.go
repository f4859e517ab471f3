package postgres

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxOutboxErrorLen caps last_error so a verbose provider response cannot bloat the row.
const maxOutboxErrorLen = 1024

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, event ports.OutboxEvent) error {
	rec := toOutboxModel(event)
	return r.db.WithContext(ctx).Create(&rec).Error
}

// ClaimUnpublished leases up to limit deliverable emails to claimToken in one statement.
// SKIP LOCKED lets several dispatchers drain the table without double-sending, and an
// expired lease makes the row claimable again.
func (r *outboxRepository) ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	if claimToken == "" {
		return nil, errors.New("claim token is required")
	}

	db := r.db.WithContext(ctx)
	claimable := db.Model(&emailOutboxModel{}).
		Select("outbox_id").
		Where("published_at IS NULL AND dead_lettered_at IS NULL").
		Where("claim_until IS NULL OR claim_until < ?", time.Now().UTC()).
		Order("created_at ASC").
		Limit(limit).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})

	var rows []emailOutboxModel
	if err := db.Model(&rows).
		Clauses(clause.Returning{}).
		Where("outbox_id IN (?)", claimable).
		Updates(map[string]any{
			"claim_token": claimToken,
			"claim_until": claimUntil,
		}).Error; err != nil {
		return nil, err
	}
	slices.SortFunc(rows, func(a, b emailOutboxModel) int { return a.CreatedAt.Compare(b.CreatedAt) })

	out := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toOutboxRecord(row))
	}
	return out, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error {
	return r.settle(ctx, outboxID, claimToken, map[string]any{"published_at": at})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	return r.settle(ctx, outboxID, claimToken, failureFields(errMsg, at))
}

func (r *outboxRepository) MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	fields := failureFields(errMsg, at)
	fields["dead_lettered_at"] = at
	return r.settle(ctx, outboxID, claimToken, fields)
}

// settle applies fields and drops the lease, but only while claimToken still holds it.
// A dispatcher whose lease lapsed mid-send cannot overwrite the next holder's outcome.
func (r *outboxRepository) settle(ctx context.Context, outboxID uuid.UUID, claimToken string, fields map[string]any) error {
	fields["claim_token"] = nil
	fields["claim_until"] = nil
	return r.db.WithContext(ctx).
		Model(&emailOutboxModel{}).
		Where("outbox_id = ? AND claim_token = ?", outboxID, claimToken).
		Updates(fields).Error
}

func failureFields(errMsg string, at time.Time) map[string]any {
	return map[string]any{
		"retry_count":   gorm.Expr("retry_count + 1"),
		"last_error":    truncateError(errMsg),
		"last_error_at": at,
	}
}

func truncateError(msg string) string {
	if len(msg) <= maxOutboxErrorLen {
		return msg
	}
	return msg[:maxOutboxErrorLen]
}
