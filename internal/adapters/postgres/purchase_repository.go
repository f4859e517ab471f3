package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type purchaseRepository struct {
	db *gorm.DB
}

func (r *purchaseRepository) CreateWithOutboxTx(ctx context.Context, params ports.PurchaseCreateParams, outboxEvent *ports.OutboxEvent) (domain.PurchaseRecord, error) {
	var result domain.PurchaseRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := toPurchaseModel(params)
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		if outboxEvent != nil {
			outbox := toOutboxModel(*outboxEvent)
			if outbox.PartitionKey == "" {
				outbox.PartitionKey = rec.PurchaseID.String()
			}
			if err := tx.Create(&outbox).Error; err != nil {
				return err
			}
		}
		result = toDomainPurchase(rec)
		return nil
	})
	if err != nil {
		return domain.PurchaseRecord{}, err
	}
	return result, nil
}

func (r *purchaseRepository) GetByDownloadToken(ctx context.Context, token string) (domain.PurchaseRecord, error) {
	return r.take(ctx, "download_token = ?", token)
}

func (r *purchaseRepository) GetByStripeSessionID(ctx context.Context, sessionID string) (domain.PurchaseRecord, error) {
	return r.take(ctx, "stripe_session_id = ?", sessionID)
}

func (r *purchaseRepository) take(ctx context.Context, query string, arg any) (domain.PurchaseRecord, error) {
	var rec purchaseModel
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PurchaseRecord{}, domain.ErrNotFound
		}
		return domain.PurchaseRecord{}, err
	}
	return toDomainPurchase(rec), nil
}

func (r *purchaseRepository) ListCompletedByEmail(ctx context.Context, email string) ([]domain.PurchaseRecord, error) {
	var rows []purchaseModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Where("status = ?", string(domain.PurchaseStatusCompleted)).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.PurchaseRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainPurchase(row))
	}
	return result, nil
}

func (r *purchaseRepository) HasCompletedByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&purchaseModel{}).
		Where("email = ?", email).
		Where("status = ?", string(domain.PurchaseStatusCompleted)).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ConsumeDownload increments the counter only while every access condition still
// holds at write time. A false result means a concurrent request won the last slot
// or the purchase changed state after it was read.
func (r *purchaseRepository) ConsumeDownload(ctx context.Context, purchaseID uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&purchaseModel{}).
		Where("purchase_id = ?", purchaseID).
		Where("status = ?", string(domain.PurchaseStatusCompleted)).
		Where("download_count < max_downloads").
		Where("expires_at >= ?", now).
		Updates(map[string]any{
			"download_count": gorm.Expr("download_count + 1"),
			"updated_at":     now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *purchaseRepository) MarkCompletedByPaymentIntent(ctx context.Context, paymentIntentID string, at time.Time) ([]domain.PurchaseRecord, error) {
	return r.completePending(ctx, "stripe_payment_intent_id = ?", paymentIntentID, at)
}

func (r *purchaseRepository) MarkCompletedBySession(ctx context.Context, sessionID string, at time.Time) ([]domain.PurchaseRecord, error) {
	return r.completePending(ctx, "stripe_session_id = ?", sessionID, at)
}

// completePending flips matching pending rows to completed and returns them as updated.
func (r *purchaseRepository) completePending(ctx context.Context, query string, arg any, at time.Time) ([]domain.PurchaseRecord, error) {
	var rows []purchaseModel
	res := r.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where(query, arg).
		Where("status = ?", string(domain.PurchaseStatusPending)).
		Updates(map[string]any{
			"status":     string(domain.PurchaseStatusCompleted),
			"updated_at": at,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	result := make([]domain.PurchaseRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainPurchase(row))
	}
	return result, nil
}

func (r *purchaseRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&purchaseModel{}).
		Where("status = ?", string(domain.PurchaseStatusCompleted)).
		Where("expires_at < ?", now).
		Updates(map[string]any{
			"status":     string(domain.PurchaseStatusExpired),
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
