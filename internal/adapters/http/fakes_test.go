package http_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

type memProducts struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Product
}

func (r *memProducts) ListActive(context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.items))
	for _, p := range r.items {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProducts) GetByID(_ context.Context, id uuid.UUID) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *memProducts) Upsert(_ context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return p, nil
}

type memPurchases struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.PurchaseRecord
}

func (r *memPurchases) CreateWithOutboxTx(_ context.Context, params ports.PurchaseCreateParams, _ *ports.OutboxEvent) (domain.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.StripeSessionID == params.StripeSessionID {
			return domain.PurchaseRecord{}, domain.ErrConflict
		}
	}
	p := domain.PurchaseRecord{
		ID:              uuid.New(),
		ProductID:       params.ProductID,
		DownloadToken:   params.DownloadToken,
		Email:           params.Email,
		StripeSessionID: params.StripeSessionID,
		Amount:          params.Amount,
		Currency:        params.Currency,
		Status:          params.Status,
		MaxDownloads:    params.MaxDownloads,
		CreatedAt:       params.CreatedAt,
		ExpiresAt:       params.ExpiresAt,
		UpdatedAt:       params.CreatedAt,
	}
	r.items[p.ID] = p
	return p, nil
}

func (r *memPurchases) find(match func(domain.PurchaseRecord) bool) (domain.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if match(p) {
			return p, nil
		}
	}
	return domain.PurchaseRecord{}, domain.ErrNotFound
}

func (r *memPurchases) GetByDownloadToken(_ context.Context, token string) (domain.PurchaseRecord, error) {
	return r.find(func(p domain.PurchaseRecord) bool { return p.DownloadToken == token })
}

func (r *memPurchases) GetByStripeSessionID(_ context.Context, id string) (domain.PurchaseRecord, error) {
	return r.find(func(p domain.PurchaseRecord) bool { return p.StripeSessionID == id })
}

func (r *memPurchases) ListCompletedByEmail(_ context.Context, email string) ([]domain.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PurchaseRecord
	for _, p := range r.items {
		if p.Email == email && p.Status == domain.PurchaseStatusCompleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPurchases) HasCompletedByEmail(ctx context.Context, email string) (bool, error) {
	items, _ := r.ListCompletedByEmail(ctx, email)
	return len(items) > 0, nil
}

func (r *memPurchases) ConsumeDownload(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || p.Status != domain.PurchaseStatusCompleted || p.DownloadCount >= p.MaxDownloads || now.After(p.ExpiresAt) {
		return false, nil
	}
	p.DownloadCount++
	p.UpdatedAt = now
	r.items[id] = p
	return true, nil
}

func (r *memPurchases) MarkCompletedByPaymentIntent(context.Context, string, time.Time) ([]domain.PurchaseRecord, error) {
	return nil, nil
}

func (r *memPurchases) MarkCompletedBySession(context.Context, string, time.Time) ([]domain.PurchaseRecord, error) {
	return nil, nil
}

func (r *memPurchases) ExpireOverdue(context.Context, time.Time) (int64, error) { return 0, nil }

type memDownloads struct{}

func (memDownloads) Append(context.Context, domain.DownloadEvent) error { return nil }

type memLoginTokens struct {
	mu    sync.Mutex
	items map[string]domain.LoginToken
}

func (r *memLoginTokens) Create(_ context.Context, t domain.LoginToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[t.Token] = t
	return nil
}

func (r *memLoginTokens) Consume(_ context.Context, token, email string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[token]
	if !ok || t.Email != email || t.IsUsed || !now.Before(t.ExpiresAt) {
		return false, nil
	}
	t.IsUsed = true
	r.items[token] = t
	return true, nil
}

func (r *memLoginTokens) latestFor(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, t := range r.items {
		if t.Email == email && !t.IsUsed {
			return token
		}
	}
	return ""
}

type memSessions struct {
	mu    sync.Mutex
	items map[string]domain.UserSession
}

func (r *memSessions) Create(_ context.Context, s domain.UserSession) (domain.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.IsActive = true
	r.items[s.SessionToken] = s
	return s, nil
}

func (r *memSessions) GetByToken(_ context.Context, token string) (domain.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[token]
	if !ok {
		return domain.UserSession{}, domain.ErrNotFound
	}
	return s, nil
}

func (r *memSessions) TouchActivity(context.Context, uuid.UUID, time.Time) error { return nil }

func (r *memSessions) Deactivate(_ context.Context, token string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.items[token]; ok {
		s.IsActive = false
		r.items[token] = s
	}
	return nil
}

type memNewsletter struct {
	mu    sync.Mutex
	items map[string]domain.NewsletterSubscriber
}

func (r *memNewsletter) Subscribe(_ context.Context, s domain.NewsletterSubscriber) (domain.NewsletterSubscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.Email]; ok {
		return domain.NewsletterSubscriber{}, domain.ErrConflict
	}
	r.items[s.Email] = s
	return s, nil
}

type memContacts struct{}

func (memContacts) Insert(context.Context, domain.ContactMessage) error { return nil }

type memWebhookEvents struct {
	mu    sync.Mutex
	items map[string]bool
}

func (r *memWebhookEvents) Reserve(_ context.Context, id, _ string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items[id] {
		return domain.ErrConflict
	}
	r.items[id] = true
	return nil
}

func (r *memWebhookEvents) Complete(context.Context, string, time.Time) error { return nil }

func (r *memWebhookEvents) Release(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type memOutbox struct{}

func (memOutbox) Enqueue(context.Context, ports.OutboxEvent) error { return nil }

func (memOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (memOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }

func (memOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error { return nil }

func (memOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

type stubPayments struct {
	events map[string]ports.PaymentEvent
}

func (p stubPayments) CreateCheckoutSession(context.Context, ports.CheckoutSessionParams) (ports.CheckoutSession, error) {
	return ports.CheckoutSession{ID: "cs_test", URL: "https://checkout.example.com/cs_test"}, nil
}

func (p stubPayments) ParseWebhook(_ []byte, signature string) (ports.PaymentEvent, error) {
	event, ok := p.events[signature]
	if !ok {
		return ports.PaymentEvent{}, domain.ErrSignatureInvalid
	}
	return event, nil
}

type stubObjects struct{}

func (stubObjects) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://shop.example.com/files/" + key + "?sig=test", nil
}
