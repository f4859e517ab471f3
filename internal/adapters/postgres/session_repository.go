package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) Create(ctx context.Context, session domain.UserSession) (domain.UserSession, error) {
	rec := sessionModel{
		SessionID:      session.ID,
		Email:          session.Email,
		SessionToken:   session.SessionToken,
		ExpiresAt:      session.ExpiresAt,
		IsActive:       true,
		CreatedAt:      session.CreatedAt,
		LastActivityAt: session.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.UserSession{}, domain.ErrConflict
		}
		return domain.UserSession{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) GetByToken(ctx context.Context, sessionToken string) (domain.UserSession, error) {
	var rec sessionModel
	if err := r.db.WithContext(ctx).Where("session_token = ?", sessionToken).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserSession{}, domain.ErrNotFound
		}
		return domain.UserSession{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) TouchActivity(ctx context.Context, sessionID uuid.UUID, touchedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ?", sessionID).
		Update("last_activity_at", touchedAt).Error
}

func (r *sessionRepository) Deactivate(ctx context.Context, sessionToken string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_token = ?", sessionToken).
		Where("is_active = TRUE").
		Updates(map[string]any{
			"is_active":        false,
			"last_activity_at": at,
		}).Error
}
