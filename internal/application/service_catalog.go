package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
)

// DefaultCatalog is the product set installed by the seed command.
var DefaultCatalog = []domain.Product{
	{
		Name:        "AI Reality Check: What You Aren't Doing, What You Can Do, What You Will Be Able to Do",
		Description: "A practical guide to understanding and leveraging AI in your daily life and work.",
		Price:       300,
		Currency:    "usd",
		FileKey:     "ai-reality-check.pdf",
		FileName:    "AI-Reality-Check-eBook.pdf",
		FileSize:    2200000,
		IsActive:    true,
	},
}

func (s *Service) ListProducts(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductResponse{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Description,
			Price:          p.Price,
			FormattedPrice: formatAmount(p.Price, p.Currency),
			Currency:       p.Currency,
			FileName:       p.FileName,
			FileSize:       p.FileSize,
		})
	}
	return out, nil
}

// SeedProducts upserts DefaultCatalog keyed by file key.
func (s *Service) SeedProducts(ctx context.Context) ([]domain.Product, error) {
	now := s.nowFn()
	out := make([]domain.Product, 0, len(DefaultCatalog))
	for _, p := range DefaultCatalog {
		p.CreatedAt = now
		p.UpdatedAt = now
		saved, err := s.products.Upsert(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("seed product %s: %w", p.FileKey, err)
		}
		appLogger().InfoContext(ctx, "product seeded",
			"operation", "seed_products",
			"outcome", "success",
			"product_id", saved.ID,
			"file_key", saved.FileKey,
		)
		out = append(out, saved)
	}
	return out, nil
}

// resolveProduct returns the requested active product, or the first active one when id is empty.
func (s *Service) resolveProduct(ctx context.Context, rawID string) (domain.Product, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return s.defaultProduct(ctx)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: invalid product_id", domain.ErrInvalidInput)
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !product.IsActive {
		return domain.Product{}, domain.ErrNotFound
	}
	return product, nil
}

func (s *Service) defaultProduct(ctx context.Context) (domain.Product, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return domain.Product{}, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return domain.Product{}, fmt.Errorf("%w: no active product", domain.ErrNotFound)
	}
	return products[0], nil
}
