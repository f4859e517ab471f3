package postgres

import (
	"context"
	"time"

	"github.com/viralforge/storefront/internal/domain"
	"gorm.io/gorm"
)

const (
	webhookStatusPending   = "PENDING"
	webhookStatusCompleted = "COMPLETED"
)

type webhookEventRepository struct {
	db *gorm.DB
}

func (r *webhookEventRepository) Reserve(ctx context.Context, eventID, eventType string, at time.Time) error {
	rec := webhookEventModel{
		EventID:   eventID,
		EventType: eventType,
		Status:    webhookStatusPending,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *webhookEventRepository) Complete(ctx context.Context, eventID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&webhookEventModel{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"status":     webhookStatusCompleted,
			"updated_at": at,
		}).Error
}

// Release drops a pending reservation so the provider's retry is processed again.
func (r *webhookEventRepository) Release(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Where("status = ?", webhookStatusPending).
		Delete(&webhookEventModel{}).Error
}
