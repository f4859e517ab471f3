package application

import (
	"time"

	"github.com/viralforge/storefront/internal/ports"
)

const serviceName = "Storefront-Service"

type Service struct {
	cfg           Config
	products      ports.ProductRepository
	purchases     ports.PurchaseRepository
	downloads     ports.DownloadEventRepository
	loginTokens   ports.LoginTokenRepository
	sessions      ports.SessionRepository
	newsletter    ports.NewsletterRepository
	contacts      ports.ContactRepository
	webhookEvents ports.WebhookEventRepository
	outbox        ports.OutboxRepository
	rateLimiter   ports.RateLimiter
	payments      ports.PaymentProvider
	objects       ports.ObjectStore
	nowFn         func() time.Time
}

type Dependencies struct {
	Config        Config
	Products      ports.ProductRepository
	Purchases     ports.PurchaseRepository
	Downloads     ports.DownloadEventRepository
	LoginTokens   ports.LoginTokenRepository
	Sessions      ports.SessionRepository
	Newsletter    ports.NewsletterRepository
	Contacts      ports.ContactRepository
	WebhookEvents ports.WebhookEventRepository
	Outbox        ports.OutboxRepository
	RateLimiter   ports.RateLimiter
	Payments      ports.PaymentProvider
	Objects       ports.ObjectStore
	// Now overrides the clock. Defaults to UTC wall time.
	Now func() time.Time
}

func NewService(deps Dependencies) *Service {
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		cfg:           deps.Config.withDefaults(),
		products:      deps.Products,
		purchases:     deps.Purchases,
		downloads:     deps.Downloads,
		loginTokens:   deps.LoginTokens,
		sessions:      deps.Sessions,
		newsletter:    deps.Newsletter,
		contacts:      deps.Contacts,
		webhookEvents: deps.WebhookEvents,
		outbox:        deps.Outbox,
		rateLimiter:   deps.RateLimiter,
		payments:      deps.Payments,
		objects:       deps.Objects,
		nowFn:         nowFn,
	}
}

// SessionTTL is exposed so the HTTP adapter can align cookie lifetime with the session row.
func (s *Service) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}
