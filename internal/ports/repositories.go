package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
)

// PurchaseCreateParams captures the verified checkout data a purchase is created from.
type PurchaseCreateParams struct {
	ProductID             uuid.UUID
	DownloadToken         string
	Email                 string
	CustomerName          string
	StripeSessionID       string
	StripePaymentIntentID string
	Amount                int64
	Currency              string
	Status                domain.PurchaseStatus
	MaxDownloads          int
	ExpiresAt             time.Time
	CreatedAt             time.Time
}

// PurchaseRepository owns purchase records and their download counters.
// ConsumeDownload is the only way the counter moves and must be a single conditional write.
// CreateWithOutboxTx returns domain.ErrConflict when a purchase already exists for the session;
// a nil outboxEvent creates the purchase alone.
type PurchaseRepository interface {
	CreateWithOutboxTx(ctx context.Context, params PurchaseCreateParams, outboxEvent *OutboxEvent) (domain.PurchaseRecord, error)
	GetByDownloadToken(ctx context.Context, token string) (domain.PurchaseRecord, error)
	GetByStripeSessionID(ctx context.Context, sessionID string) (domain.PurchaseRecord, error)
	ListCompletedByEmail(ctx context.Context, email string) ([]domain.PurchaseRecord, error)
	HasCompletedByEmail(ctx context.Context, email string) (bool, error)
	ConsumeDownload(ctx context.Context, purchaseID uuid.UUID, now time.Time) (bool, error)
	MarkCompletedByPaymentIntent(ctx context.Context, paymentIntentID string, at time.Time) ([]domain.PurchaseRecord, error)
	MarkCompletedBySession(ctx context.Context, sessionID string, at time.Time) ([]domain.PurchaseRecord, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// DownloadEventRepository appends download audit rows.
type DownloadEventRepository interface {
	Append(ctx context.Context, event domain.DownloadEvent) error
}

// ProductRepository reads the catalog. Upsert is keyed by file key and used by seeding.
type ProductRepository interface {
	ListActive(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (domain.Product, error)
}

// LoginTokenRepository stores mailed login tokens.
// Consume flips is_used only for an unused, unexpired token matching the email.
type LoginTokenRepository interface {
	Create(ctx context.Context, token domain.LoginToken) error
	Consume(ctx context.Context, token, email string, now time.Time) (bool, error)
}

// SessionRepository manages persistent session lifecycle.
type SessionRepository interface {
	Create(ctx context.Context, session domain.UserSession) (domain.UserSession, error)
	GetByToken(ctx context.Context, sessionToken string) (domain.UserSession, error)
	TouchActivity(ctx context.Context, sessionID uuid.UUID, touchedAt time.Time) error
	Deactivate(ctx context.Context, sessionToken string, at time.Time) error
}

// NewsletterRepository returns domain.ErrConflict for an already subscribed email.
type NewsletterRepository interface {
	Subscribe(ctx context.Context, subscriber domain.NewsletterSubscriber) (domain.NewsletterSubscriber, error)
}

type ContactRepository interface {
	Insert(ctx context.Context, msg domain.ContactMessage) error
}

// WebhookEventRepository deduplicates provider webhook deliveries by event id.
// Reserve returns domain.ErrConflict when the event was already seen.
type WebhookEventRepository interface {
	Reserve(ctx context.Context, eventID, eventType string, at time.Time) error
	Complete(ctx context.Context, eventID string, at time.Time) error
	Release(ctx context.Context, eventID string) error
}

// OutboxEvent is the write-side message prior to storage.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls the delivery-retry workflow for queued emails.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
