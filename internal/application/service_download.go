package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
)

// Download gates one retrieval of the purchased file and returns a signed URL for it.
// The counter only moves through the store's conditional increment, so concurrent
// requests never push download_count past max_downloads.
func (s *Service) Download(ctx context.Context, req DownloadRequest) (DownloadResult, error) {
	token := strings.TrimSpace(req.Token)
	if !domain.ValidDownloadToken(token) {
		downloadsTotal.WithLabelValues("invalid_token").Inc()
		return DownloadResult{}, fmt.Errorf("%w: malformed download token", domain.ErrInvalidInput)
	}

	purchase, err := s.purchases.GetByDownloadToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			downloadsTotal.WithLabelValues("not_found").Inc()
			return DownloadResult{}, err
		}
		downloadsTotal.WithLabelValues("error").Inc()
		return DownloadResult{}, fmt.Errorf("lookup purchase: %w", err)
	}

	now := s.nowFn()
	if decision := evaluateAccess(purchase, now); !decision.Permitted {
		downloadsTotal.WithLabelValues(string(decision.Reason)).Inc()
		return DownloadResult{}, decision.Err()
	}

	product, err := s.products.GetByID(ctx, purchase.ProductID)
	if err != nil {
		downloadsTotal.WithLabelValues("error").Inc()
		return DownloadResult{}, fmt.Errorf("lookup product: %w", err)
	}
	signedURL, err := s.objects.SignedURL(ctx, product.FileKey, s.cfg.SignedURLTTL)
	if err != nil {
		downloadsTotal.WithLabelValues("error").Inc()
		return DownloadResult{}, fmt.Errorf("%w: sign download url: %v", domain.ErrUpstream, err)
	}

	consumed, err := s.purchases.ConsumeDownload(ctx, purchase.ID, now)
	if err != nil {
		downloadsTotal.WithLabelValues("error").Inc()
		return DownloadResult{}, fmt.Errorf("consume download: %w", err)
	}
	if !consumed {
		return DownloadResult{}, s.lostConsumeRace(ctx, token)
	}

	s.recordDownloadEvent(ctx, purchase.ID, req)
	downloadsTotal.WithLabelValues(string(domain.AccessOK)).Inc()
	return DownloadResult{URL: signedURL, FileName: product.FileName}, nil
}

// lostConsumeRace re-reads the purchase after a rejected increment to name the precise reason.
func (s *Service) lostConsumeRace(ctx context.Context, token string) error {
	latest, err := s.purchases.GetByDownloadToken(ctx, token)
	if err != nil {
		downloadsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("reload purchase: %w", err)
	}
	decision := evaluateAccess(latest, s.nowFn())
	if decision.Permitted {
		// the row changed between the increment and the re-read; report the counter race
		downloadsTotal.WithLabelValues(string(domain.AccessLimitExceeded)).Inc()
		return domain.ErrDownloadLimitReached
	}
	downloadsTotal.WithLabelValues(string(decision.Reason)).Inc()
	return decision.Err()
}

// evaluateAccess reports a purchase the sweep moved to expired as EXPIRED, the same answer
// it got before the sweep ran.
func evaluateAccess(p domain.PurchaseRecord, now time.Time) domain.AccessDecision {
	decision := domain.Evaluate(p, now)
	if !decision.Permitted && p.Status == domain.PurchaseStatusExpired {
		decision.Reason = domain.AccessExpired
	}
	return decision
}

func (s *Service) recordDownloadEvent(ctx context.Context, purchaseID uuid.UUID, req DownloadRequest) {
	if err := s.downloads.Append(ctx, domain.DownloadEvent{
		ID:           uuid.New(),
		PurchaseID:   purchaseID,
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		DownloadedAt: s.nowFn(),
	}); err != nil {
		appLogger().WarnContext(ctx, "failed to persist download event",
			"operation", "record_download_event",
			"outcome", "failure",
			"purchase_id", purchaseID,
			"error", err,
		)
	}
}

// DownloadStatus reports what Download would decide, without consuming anything.
func (s *Service) DownloadStatus(ctx context.Context, token string) (DownloadStatusResponse, error) {
	token = strings.TrimSpace(token)
	if !domain.ValidDownloadToken(token) {
		return DownloadStatusResponse{}, fmt.Errorf("%w: malformed download token", domain.ErrInvalidInput)
	}
	purchase, err := s.purchases.GetByDownloadToken(ctx, token)
	if err != nil {
		return DownloadStatusResponse{}, err
	}
	product, err := s.products.GetByID(ctx, purchase.ProductID)
	if err != nil {
		return DownloadStatusResponse{}, fmt.Errorf("lookup product: %w", err)
	}

	now := s.nowFn()
	decision := evaluateAccess(purchase, now)
	return DownloadStatusResponse{
		Purchase: PurchaseInfo{
			ID:            purchase.ID,
			Email:         purchase.Email,
			ProductName:   product.Name,
			FileName:      product.FileName,
			FileSize:      product.FileSize,
			DownloadCount: purchase.DownloadCount,
			MaxDownloads:  purchase.MaxDownloads,
			Status:        purchase.Status,
			ExpiresAt:     displayExpiry(purchase.ExpiresAt),
			CreatedAt:     purchase.CreatedAt,
		},
		CanDownload:        decision.Permitted,
		Reason:             decision.Reason,
		DownloadsRemaining: decision.DownloadsRemaining,
		IsExpired:          decision.Reason == domain.AccessExpired || now.After(purchase.ExpiresAt),
		IsLimitExceeded:    purchase.DownloadCount >= purchase.MaxDownloads,
		IsCompleted:        purchase.Status == domain.PurchaseStatusCompleted,
	}, nil
}
