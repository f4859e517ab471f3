package domain

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
	PurchaseStatusRefunded  PurchaseStatus = "refunded"
	PurchaseStatusExpired   PurchaseStatus = "expired"
)

// NeverExpires is the explicit expiry for purchases without an access window.
var NeverExpires = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// PurchaseRecord is the aggregate root for paid access to a product.
// DownloadCount only grows and is capped by MaxDownloads.
type PurchaseRecord struct {
	ID                    uuid.UUID
	ProductID             uuid.UUID
	DownloadToken         string
	Email                 string
	CustomerName          string
	StripeSessionID       string
	StripePaymentIntentID string
	Amount                int64
	Currency              string
	Status                PurchaseStatus
	DownloadCount         int
	MaxDownloads          int
	CreatedAt             time.Time
	ExpiresAt             time.Time
	UpdatedAt             time.Time
}

// DownloadEvent is an append-only audit row written for each accepted download.
type DownloadEvent struct {
	ID           uuid.UUID
	PurchaseID   uuid.UUID
	IPAddress    string
	UserAgent    string
	DownloadedAt time.Time
}

// Product is a sellable digital item. FileKey addresses the object store.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       int64
	Currency    string
	FileKey     string
	FileName    string
	FileSize    int64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
