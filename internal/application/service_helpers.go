package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/viralforge/storefront/internal/domain"
)

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "application",
		"layer", "application",
	)
}

// normalizeEmail canonicalizes and validates email format before persistence/comparison.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

// enforceRateLimit fails open: limiter outages are logged and the request proceeds.
func (s *Service) enforceRateLimit(ctx context.Context, action, identifier string, rule RateLimitRule) error {
	if s.rateLimiter == nil || rule.Limit <= 0 || rule.Window <= 0 {
		return nil
	}
	if strings.TrimSpace(identifier) == "" {
		identifier = "unknown"
	}

	allowed, err := s.rateLimiter.Allow(ctx, action, identifier, rule.Limit, rule.Window)
	if err != nil {
		appLogger().WarnContext(ctx, "rate-limit state unavailable",
			"operation", "rate_limit",
			"outcome", "warning",
			"action", action,
			"error", err,
		)
		return nil
	}
	if !allowed {
		return domain.ErrRateLimited
	}
	return nil
}

// formatAmount renders minor units as a decimal string with the currency code, e.g. "3.00 USD".
func formatAmount(amount int64, currency string) string {
	return decimal.New(amount, -2).StringFixed(2) + " " + strings.ToUpper(currency)
}

// displayExpiry hides the never-expires sentinel from API consumers.
func displayExpiry(t time.Time) *time.Time {
	if !t.Before(domain.NeverExpires) {
		return nil
	}
	out := t
	return &out
}

func (s *Service) downloadURL(token string) string {
	return s.cfg.AppURL + "/download/" + token
}

// productIndex memoizes product lookups for a single request.
type productIndex struct {
	svc   *Service
	cache map[uuid.UUID]domain.Product
}

func (s *Service) newProductIndex() *productIndex {
	return &productIndex{svc: s, cache: map[uuid.UUID]domain.Product{}}
}

func (p *productIndex) get(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	if product, ok := p.cache[id]; ok {
		return product, nil
	}
	product, err := p.svc.products.GetByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	p.cache[id] = product
	return product, nil
}
