package postgres

import (
	"github.com/viralforge/storefront/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Purchases     ports.PurchaseRepository
	Downloads     ports.DownloadEventRepository
	Products      ports.ProductRepository
	LoginTokens   ports.LoginTokenRepository
	Sessions      ports.SessionRepository
	Newsletter    ports.NewsletterRepository
	Contacts      ports.ContactRepository
	WebhookEvents ports.WebhookEventRepository
	Outbox        ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Purchases:     &purchaseRepository{db: db},
		Downloads:     &downloadEventRepository{db: db},
		Products:      &productRepository{db: db},
		LoginTokens:   &loginTokenRepository{db: db},
		Sessions:      &sessionRepository{db: db},
		Newsletter:    &newsletterRepository{db: db},
		Contacts:      &contactRepository{db: db},
		WebhookEvents: &webhookEventRepository{db: db},
		Outbox:        &outboxRepository{db: db},
	}
}
