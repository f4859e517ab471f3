package postgres

import (
	"context"

	"github.com/viralforge/storefront/internal/domain"
	"gorm.io/gorm"
)

type newsletterRepository struct {
	db *gorm.DB
}

func (r *newsletterRepository) Subscribe(ctx context.Context, subscriber domain.NewsletterSubscriber) (domain.NewsletterSubscriber, error) {
	rec := newsletterSubscriberModel{
		SubscriberID: subscriber.ID,
		Email:        subscriber.Email,
		Name:         nullableString(subscriber.Name),
		Source:       subscriber.Source,
		CreatedAt:    subscriber.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.NewsletterSubscriber{}, domain.ErrConflict
		}
		return domain.NewsletterSubscriber{}, err
	}
	return domain.NewsletterSubscriber{
		ID:        rec.SubscriberID,
		Email:     rec.Email,
		Name:      derefString(rec.Name),
		Source:    rec.Source,
		CreatedAt: rec.CreatedAt,
	}, nil
}

type contactRepository struct {
	db *gorm.DB
}

func (r *contactRepository) Insert(ctx context.Context, msg domain.ContactMessage) error {
	rec := contactMessageModel{
		MessageID: msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Message:   msg.Message,
		IPAddress: nullableString(msg.IPAddress),
		CreatedAt: msg.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}
