package application_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/application"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

type fixture struct {
	service    *application.Service
	clock      *fakeClock
	products   *fakeProducts
	purchases  *fakePurchases
	downloads  *fakeDownloads
	tokens     *fakeLoginTokens
	sessions   *fakeSessions
	newsletter *fakeNewsletter
	contacts   *fakeContacts
	webhooks   *fakeWebhookEvents
	outbox     *fakeOutbox
	limiter    *fakeLimiter
	payments   *fakePayments
	objects    *fakeObjects
	product    domain.Product
}

func newFixture() *fixture {
	clock := &fakeClock{now: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)}
	product := domain.Product{
		ID:       uuid.New(),
		Name:     "AI Reality Check",
		Price:    300,
		Currency: "usd",
		FileKey:  "ai-reality-check.pdf",
		FileName: "AI-Reality-Check-eBook.pdf",
		FileSize: 2200000,
		IsActive: true,
	}
	f := &fixture{
		clock:      clock,
		products:   &fakeProducts{items: map[uuid.UUID]domain.Product{product.ID: product}},
		purchases:  &fakePurchases{items: map[uuid.UUID]domain.PurchaseRecord{}},
		downloads:  &fakeDownloads{},
		tokens:     &fakeLoginTokens{items: map[string]domain.LoginToken{}},
		sessions:   &fakeSessions{items: map[string]domain.UserSession{}},
		newsletter: &fakeNewsletter{items: map[string]domain.NewsletterSubscriber{}},
		contacts:   &fakeContacts{},
		webhooks:   &fakeWebhookEvents{items: map[string]string{}},
		outbox:     &fakeOutbox{},
		limiter:    &fakeLimiter{counts: map[string]int{}},
		payments:   &fakePayments{events: map[string]ports.PaymentEvent{}},
		objects:    &fakeObjects{},
		product:    product,
	}
	f.purchases.outbox = f.outbox
	f.service = application.NewService(application.Dependencies{
		Config: application.Config{
			AppURL:              "https://shop.example.com/",
			MaxDownloads:        5,
			PurchaseTTL:         30 * 24 * time.Hour,
			LoginTokenTTL:       30 * time.Minute,
			SessionTTL:          7 * 24 * time.Hour,
			SignedURLTTL:        time.Hour,
			ContactInbox:        "inbox@example.com",
			LoginRateLimit:      application.RateLimitRule{Limit: 5, Window: 5 * time.Minute},
			ContactRateLimit:    application.RateLimitRule{Limit: 3, Window: 5 * time.Minute},
			NewsletterRateLimit: application.RateLimitRule{Limit: 5, Window: time.Minute},
		},
		Products:      f.products,
		Purchases:     f.purchases,
		Downloads:     f.downloads,
		LoginTokens:   f.tokens,
		Sessions:      f.sessions,
		Newsletter:    f.newsletter,
		Contacts:      f.contacts,
		WebhookEvents: f.webhooks,
		Outbox:        f.outbox,
		RateLimiter:   f.limiter,
		Payments:      f.payments,
		Objects:       f.objects,
		Now:           clock.Now,
	})
	return f
}

// seedPurchase stores a purchase for the fixture product and returns it.
func (f *fixture) seedPurchase(email string, status domain.PurchaseStatus, count, max int, expiresAt time.Time) domain.PurchaseRecord {
	p := domain.PurchaseRecord{
		ID:              uuid.New(),
		ProductID:       f.product.ID,
		DownloadToken:   domain.GenerateToken(domain.DownloadTokenBytes),
		Email:           email,
		StripeSessionID: "cs_" + uuid.NewString(),
		Amount:          300,
		Currency:        "usd",
		Status:          status,
		DownloadCount:   count,
		MaxDownloads:    max,
		CreatedAt:       f.clock.Now(),
		ExpiresAt:       expiresAt,
		UpdatedAt:       f.clock.Now(),
	}
	f.purchases.mu.Lock()
	f.purchases.items[p.ID] = p
	f.purchases.mu.Unlock()
	return p
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeProducts struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Product
}

func (r *fakeProducts) ListActive(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.items))
	for _, p := range r.items {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeProducts) GetByID(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[productID]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakeProducts) Upsert(_ context.Context, product domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.items {
		if existing.FileKey == product.FileKey {
			product.ID = id
			r.items[id] = product
			return product, nil
		}
	}
	product.ID = uuid.New()
	r.items[product.ID] = product
	return product, nil
}

type fakePurchases struct {
	mu     sync.Mutex
	items  map[uuid.UUID]domain.PurchaseRecord
	outbox *fakeOutbox
}

func (r *fakePurchases) CreateWithOutboxTx(ctx context.Context, params ports.PurchaseCreateParams, outboxEvent *ports.OutboxEvent) (domain.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.StripeSessionID == params.StripeSessionID || existing.DownloadToken == params.DownloadToken {
			return domain.PurchaseRecord{}, domain.ErrConflict
		}
	}
	p := domain.PurchaseRecord{
		ID:                    uuid.New(),
		ProductID:             params.ProductID,
		DownloadToken:         params.DownloadToken,
		Email:                 params.Email,
		CustomerName:          params.CustomerName,
		StripeSessionID:       params.StripeSessionID,
		StripePaymentIntentID: params.StripePaymentIntentID,
		Amount:                params.Amount,
		Currency:              params.Currency,
		Status:                params.Status,
		MaxDownloads:          params.MaxDownloads,
		CreatedAt:             params.CreatedAt,
		ExpiresAt:             params.ExpiresAt,
		UpdatedAt:             params.CreatedAt,
	}
	if outboxEvent != nil {
		if err := r.outbox.Enqueue(ctx, *outboxEvent); err != nil {
			return domain.PurchaseRecord{}, err
		}
	}
	r.items[p.ID] = p
	return p, nil
}

func (r *fakePurchases) find(match func(domain.PurchaseRecord) bool) (domain.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if match(p) {
			return p, nil
		}
	}
	return domain.PurchaseRecord{}, domain.ErrNotFound
}

func (r *fakePurchases) GetByDownloadToken(_ context.Context, token string) (domain.PurchaseRecord, error) {
	return r.find(func(p domain.PurchaseRecord) bool { return p.DownloadToken == token })
}

func (r *fakePurchases) GetByStripeSessionID(_ context.Context, sessionID string) (domain.PurchaseRecord, error) {
	return r.find(func(p domain.PurchaseRecord) bool { return p.StripeSessionID == sessionID })
}

func (r *fakePurchases) ListCompletedByEmail(_ context.Context, email string) ([]domain.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PurchaseRecord, 0)
	for _, p := range r.items {
		if p.Email == email && p.Status == domain.PurchaseStatusCompleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePurchases) HasCompletedByEmail(ctx context.Context, email string) (bool, error) {
	items, err := r.ListCompletedByEmail(ctx, email)
	return len(items) > 0, err
}

// ConsumeDownload mirrors the conditional UPDATE of the postgres adapter under one lock.
func (r *fakePurchases) ConsumeDownload(_ context.Context, purchaseID uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[purchaseID]
	if !ok || p.Status != domain.PurchaseStatusCompleted || p.DownloadCount >= p.MaxDownloads || !p.ExpiresAt.After(now) {
		return false, nil
	}
	p.DownloadCount++
	p.UpdatedAt = now
	r.items[purchaseID] = p
	return true, nil
}

func (r *fakePurchases) MarkCompletedByPaymentIntent(_ context.Context, paymentIntentID string, at time.Time) ([]domain.PurchaseRecord, error) {
	return r.completePending(func(p domain.PurchaseRecord) bool { return p.StripePaymentIntentID == paymentIntentID }, at)
}

func (r *fakePurchases) MarkCompletedBySession(_ context.Context, sessionID string, at time.Time) ([]domain.PurchaseRecord, error) {
	return r.completePending(func(p domain.PurchaseRecord) bool { return p.StripeSessionID == sessionID }, at)
}

func (r *fakePurchases) completePending(match func(domain.PurchaseRecord) bool, at time.Time) ([]domain.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PurchaseRecord, 0)
	for id, p := range r.items {
		if match(p) && p.Status == domain.PurchaseStatusPending {
			p.Status = domain.PurchaseStatusCompleted
			p.UpdatedAt = at
			r.items[id] = p
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePurchases) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.items {
		if p.Status == domain.PurchaseStatusCompleted && p.ExpiresAt.Before(now) {
			p.Status = domain.PurchaseStatusExpired
			r.items[id] = p
			n++
		}
	}
	return n, nil
}

func (r *fakePurchases) get(id uuid.UUID) domain.PurchaseRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

func (r *fakePurchases) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeDownloads struct {
	mu     sync.Mutex
	events []domain.DownloadEvent
	err    error
}

func (r *fakeDownloads) Append(_ context.Context, event domain.DownloadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeDownloads) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fakeLoginTokens struct {
	mu    sync.Mutex
	items map[string]domain.LoginToken
}

func (r *fakeLoginTokens) Create(_ context.Context, token domain.LoginToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[token.Token] = token
	return nil
}

func (r *fakeLoginTokens) Consume(_ context.Context, token, email string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[token]
	if !ok || t.Email != email || t.IsUsed || !t.ExpiresAt.After(now) {
		return false, nil
	}
	t.IsUsed = true
	r.items[token] = t
	return true, nil
}

func (r *fakeLoginTokens) forEmail(email string) []domain.LoginToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.LoginToken, 0)
	for _, t := range r.items {
		if t.Email == email {
			out = append(out, t)
		}
	}
	return out
}

type fakeSessions struct {
	mu    sync.Mutex
	items map[string]domain.UserSession
}

func (r *fakeSessions) Create(_ context.Context, session domain.UserSession) (domain.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[session.SessionToken]; exists {
		return domain.UserSession{}, domain.ErrConflict
	}
	r.items[session.SessionToken] = session
	return session, nil
}

func (r *fakeSessions) GetByToken(_ context.Context, sessionToken string) (domain.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[sessionToken]
	if !ok {
		return domain.UserSession{}, domain.ErrNotFound
	}
	return s, nil
}

func (r *fakeSessions) TouchActivity(_ context.Context, sessionID uuid.UUID, touchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, s := range r.items {
		if s.ID == sessionID {
			s.LastActivityAt = touchedAt
			r.items[token] = s
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeSessions) Deactivate(_ context.Context, sessionToken string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[sessionToken]
	if !ok {
		return domain.ErrNotFound
	}
	s.IsActive = false
	r.items[sessionToken] = s
	return nil
}

type fakeNewsletter struct {
	mu    sync.Mutex
	items map[string]domain.NewsletterSubscriber
}

func (r *fakeNewsletter) Subscribe(_ context.Context, sub domain.NewsletterSubscriber) (domain.NewsletterSubscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[sub.Email]; exists {
		return domain.NewsletterSubscriber{}, domain.ErrConflict
	}
	r.items[sub.Email] = sub
	return sub, nil
}

type fakeContacts struct {
	mu       sync.Mutex
	messages []domain.ContactMessage
}

func (r *fakeContacts) Insert(_ context.Context, msg domain.ContactMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeContacts) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type fakeWebhookEvents struct {
	mu    sync.Mutex
	items map[string]string
}

func (r *fakeWebhookEvents) Reserve(_ context.Context, eventID, _ string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[eventID]; exists {
		return domain.ErrConflict
	}
	r.items[eventID] = "PENDING"
	return nil
}

func (r *fakeWebhookEvents) Complete(_ context.Context, eventID string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[eventID] = "COMPLETED"
	return nil
}

func (r *fakeWebhookEvents) Release(_ context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, eventID)
	return nil
}

func (r *fakeWebhookEvents) status(eventID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[eventID]
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (r *fakeOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (r *fakeOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }

func (r *fakeOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (r *fakeOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (r *fakeOutbox) ofType(eventType string) []ports.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.OutboxEvent, 0)
	for _, e := range r.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (l *fakeLimiter) Allow(_ context.Context, action, identifier string, limit int, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := action + ":" + identifier
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

type fakePayments struct {
	mu       sync.Mutex
	events   map[string]ports.PaymentEvent
	sessions []ports.CheckoutSessionParams
	err      error
}

func (p *fakePayments) CreateCheckoutSession(_ context.Context, params ports.CheckoutSessionParams) (ports.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return ports.CheckoutSession{}, p.err
	}
	p.sessions = append(p.sessions, params)
	return ports.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil
}

// ParseWebhook treats the signature header as a lookup key for a prepared event.
func (p *fakePayments) ParseWebhook(_ []byte, signatureHeader string) (ports.PaymentEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, ok := p.events[signatureHeader]
	if !ok {
		return ports.PaymentEvent{}, domain.ErrSignatureInvalid
	}
	return ev, nil
}

func (p *fakePayments) prepare(signature string, ev ports.PaymentEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[signature] = ev
}

type fakeObjects struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (o *fakeObjects) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return "", o.err
	}
	o.calls++
	return "https://files.example.com/" + key + "?ttl=" + ttl.String(), nil
}

var errBoom = errors.New("boom")
