package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
)

const contactReceivedMessage = "Thank you for your message. We'll get back to you soon."

// SubscribeNewsletter records a subscriber and queues a welcome email.
// An already subscribed email yields domain.ErrConflict.
func (s *Service) SubscribeNewsletter(ctx context.Context, req NewsletterRequest) (NewsletterResponse, error) {
	if err := s.enforceRateLimit(ctx, "newsletter", req.IPAddress, s.cfg.NewsletterRateLimit); err != nil {
		return NewsletterResponse{}, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return NewsletterResponse{}, err
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "website"
	}

	sub, err := s.newsletter.Subscribe(ctx, domain.NewsletterSubscriber{
		ID:        uuid.New(),
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		Source:    source,
		CreatedAt: s.nowFn(),
	})
	if err != nil {
		return NewsletterResponse{}, fmt.Errorf("subscribe: %w", err)
	}

	s.enqueueEmail(ctx, eventTypeNewsletterWelcome, email, newsletterWelcomeEmail(sub))
	return NewsletterResponse{ID: sub.ID, Email: sub.Email}, nil
}

// SubmitContact validates and stores a contact form message, then notifies the inbox.
func (s *Service) SubmitContact(ctx context.Context, req ContactRequest) (MessageResponse, error) {
	if err := s.enforceRateLimit(ctx, "contact", req.IPAddress, s.cfg.ContactRateLimit); err != nil {
		return MessageResponse{}, err
	}

	msg := domain.ContactMessage{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),
		IPAddress: req.IPAddress,
		CreatedAt: s.nowFn(),
	}
	if err := domain.ValidateContactMessage(msg); err != nil {
		return MessageResponse{}, err
	}
	email, err := normalizeEmail(msg.Email)
	if err != nil {
		return MessageResponse{}, err
	}
	msg.Email = email

	if err := s.contacts.Insert(ctx, msg); err != nil {
		return MessageResponse{}, fmt.Errorf("store contact message: %w", err)
	}
	if s.cfg.ContactInbox != "" {
		s.enqueueEmail(ctx, eventTypeContactNotification, s.cfg.ContactInbox, contactNotificationEmail(s.cfg.ContactInbox, msg))
	}
	return MessageResponse{Message: contactReceivedMessage}, nil
}
