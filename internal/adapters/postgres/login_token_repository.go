package postgres

import (
	"context"
	"time"

	"github.com/viralforge/storefront/internal/domain"
	"gorm.io/gorm"
)

type loginTokenRepository struct {
	db *gorm.DB
}

func (r *loginTokenRepository) Create(ctx context.Context, token domain.LoginToken) error {
	rec := loginTokenModel{
		TokenID:   token.ID,
		Email:     token.Email,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

// Consume verifies and burns the token in one statement so a replayed link
// can never open a second session.
func (r *loginTokenRepository) Consume(ctx context.Context, token, email string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&loginTokenModel{}).
		Where("token = ?", token).
		Where("email = ?", email).
		Where("is_used = FALSE").
		Where("expires_at > ?", now).
		Update("is_used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
