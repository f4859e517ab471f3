package postgres

import (
	"errors"
	"strings"

	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
	"gorm.io/gorm"
)

func toDomainProduct(rec productModel) domain.Product {
	return domain.Product{
		ID:          rec.ProductID,
		Name:        rec.Name,
		Description: rec.Description,
		Price:       rec.Price,
		Currency:    rec.Currency,
		FileKey:     rec.FileKey,
		FileName:    rec.FileName,
		FileSize:    rec.FileSize,
		IsActive:    rec.IsActive,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func toDomainPurchase(rec purchaseModel) domain.PurchaseRecord {
	return domain.PurchaseRecord{
		ID:                    rec.PurchaseID,
		ProductID:             rec.ProductID,
		DownloadToken:         rec.DownloadToken,
		Email:                 rec.Email,
		CustomerName:          derefString(rec.CustomerName),
		StripeSessionID:       rec.StripeSessionID,
		StripePaymentIntentID: derefString(rec.StripePaymentIntentID),
		Amount:                rec.Amount,
		Currency:              rec.Currency,
		Status:                domain.PurchaseStatus(rec.Status),
		DownloadCount:         rec.DownloadCount,
		MaxDownloads:          rec.MaxDownloads,
		CreatedAt:             rec.CreatedAt,
		ExpiresAt:             rec.ExpiresAt,
		UpdatedAt:             rec.UpdatedAt,
	}
}

func toPurchaseModel(params ports.PurchaseCreateParams) purchaseModel {
	return purchaseModel{
		ProductID:             params.ProductID,
		DownloadToken:         params.DownloadToken,
		Email:                 params.Email,
		CustomerName:          nullableString(params.CustomerName),
		StripeSessionID:       params.StripeSessionID,
		StripePaymentIntentID: nullableString(params.StripePaymentIntentID),
		Amount:                params.Amount,
		Currency:              params.Currency,
		Status:                string(params.Status),
		MaxDownloads:          params.MaxDownloads,
		CreatedAt:             params.CreatedAt,
		ExpiresAt:             params.ExpiresAt,
		UpdatedAt:             params.CreatedAt,
	}
}

func toDomainSession(rec sessionModel) domain.UserSession {
	return domain.UserSession{
		ID:             rec.SessionID,
		Email:          rec.Email,
		SessionToken:   rec.SessionToken,
		ExpiresAt:      rec.ExpiresAt,
		IsActive:       rec.IsActive,
		CreatedAt:      rec.CreatedAt,
		LastActivityAt: rec.LastActivityAt,
	}
}

func toOutboxModel(event ports.OutboxEvent) emailOutboxModel {
	payload := string(event.Payload)
	if payload == "" {
		payload = "{}"
	}
	return emailOutboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		CreatedAt:    event.OccurredAt,
	}
}

func toOutboxRecord(row emailOutboxModel) ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID:       row.OutboxID,
		EventType:      row.EventType,
		PartitionKey:   row.PartitionKey,
		Payload:        []byte(row.Payload),
		RetryCount:     row.RetryCount,
		LastError:      row.LastError,
		CreatedAt:      row.CreatedAt,
		PublishedAt:    row.PublishedAt,
		LastErrorAt:    row.LastErrorAt,
		ClaimToken:     row.ClaimToken,
		ClaimUntil:     row.ClaimUntil,
		DeadLetteredAt: row.DeadLetteredAt,
	}
}

func nullableString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
