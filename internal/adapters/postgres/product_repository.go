package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) ListActive(ctx context.Context) ([]domain.Product, error) {
	var rows []productModel
	if err := r.db.WithContext(ctx).
		Where("is_active = TRUE").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainProduct(row))
	}
	return result, nil
}

func (r *productRepository) GetByID(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	var rec productModel
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	return toDomainProduct(rec), nil
}

func (r *productRepository) Upsert(ctx context.Context, product domain.Product) (domain.Product, error) {
	rec := productModel{
		ProductID:   product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Currency:    product.Currency,
		FileKey:     product.FileKey,
		FileName:    product.FileName,
		FileSize:    product.FileSize,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	if rec.ProductID == uuid.Nil {
		rec.ProductID = uuid.New()
	}
	err := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "file_key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":        rec.Name,
				"description": rec.Description,
				"price":       rec.Price,
				"currency":    rec.Currency,
				"file_name":   rec.FileName,
				"file_size":   rec.FileSize,
				"is_active":   rec.IsActive,
				"updated_at":  rec.UpdatedAt,
			}),
		},
		clause.Returning{},
	).Create(&rec).Error
	if err != nil {
		return domain.Product{}, err
	}
	return toDomainProduct(rec), nil
}
