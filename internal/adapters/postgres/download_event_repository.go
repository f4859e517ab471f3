package postgres

import (
	"context"

	"github.com/viralforge/storefront/internal/domain"
	"gorm.io/gorm"
)

type downloadEventRepository struct {
	db *gorm.DB
}

func (r *downloadEventRepository) Append(ctx context.Context, event domain.DownloadEvent) error {
	rec := downloadEventModel{
		EventID:      event.ID,
		PurchaseID:   event.PurchaseID,
		IPAddress:    nullableString(event.IPAddress),
		UserAgent:    nullableString(event.UserAgent),
		DownloadedAt: event.DownloadedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}
