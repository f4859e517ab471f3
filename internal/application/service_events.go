package application

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

const (
	eventTypePurchaseConfirmation = "email.purchase_confirmation"
	eventTypeLoginLink            = "email.login_link"
	eventTypeNewsletterWelcome    = "email.newsletter_welcome"
	eventTypeContactNotification  = "email.contact_notification"
)

func (s *Service) newEmailEvent(eventType, partitionKey string, msg ports.EmailMessage) (ports.OutboxEvent, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return ports.OutboxEvent{}, fmt.Errorf("marshal email: %w", err)
	}
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		OccurredAt:   s.nowFn(),
	}, nil
}

// enqueueEmail is best-effort. Failures are logged and never surface to the caller.
func (s *Service) enqueueEmail(ctx context.Context, eventType, partitionKey string, msg ports.EmailMessage) {
	event, err := s.newEmailEvent(eventType, partitionKey, msg)
	if err == nil {
		err = s.outbox.Enqueue(ctx, event)
	}
	if err != nil {
		appLogger().WarnContext(ctx, "email enqueue failed",
			"operation", "enqueue_email",
			"outcome", "failure",
			"event_type", eventType,
			"error", err,
		)
	}
}

func (s *Service) purchaseConfirmationEmail(p domain.PurchaseRecord, product domain.Product) ports.EmailMessage {
	link := s.downloadURL(p.DownloadToken)
	expiry := "does not expire"
	if at := displayExpiry(p.ExpiresAt); at != nil {
		expiry = "expires on " + at.Format("January 2, 2006")
	}
	amount := formatAmount(p.Amount, p.Currency)
	text := fmt.Sprintf(
		"Thank you for your purchase of %s (%s).\n\nDownload: %s\n\nThe link allows %d downloads and %s.\n",
		product.Name, amount, link, p.MaxDownloads, expiry,
	)
	body := fmt.Sprintf(
		`<p>Thank you for your purchase of <strong>%s</strong> (%s).</p><p><a href="%s">Download your eBook</a></p><p>The link allows %d downloads and %s.</p>`,
		html.EscapeString(product.Name), amount, html.EscapeString(link), p.MaxDownloads, expiry,
	)
	return ports.EmailMessage{
		To:      p.Email,
		Subject: "Your purchase: " + product.Name,
		HTML:    body,
		Text:    text,
	}
}

func (s *Service) loginLinkEmail(email, token string, ttl time.Duration) ports.EmailMessage {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	link := s.cfg.AppURL + "/login/verify?" + q.Encode()
	minutes := int(ttl.Minutes())
	return ports.EmailMessage{
		To:      email,
		Subject: "Your login link",
		HTML: fmt.Sprintf(`<p><a href="%s">Sign in to your account</a></p><p>This link expires in %d minutes and can be used once.</p>`,
			html.EscapeString(link), minutes),
		Text: fmt.Sprintf("Sign in to your account: %s\n\nThis link expires in %d minutes and can be used once.\n", link, minutes),
	}
}

func newsletterWelcomeEmail(sub domain.NewsletterSubscriber) ports.EmailMessage {
	greeting := "Hi"
	if sub.Name != "" {
		greeting = "Hi " + sub.Name
	}
	return ports.EmailMessage{
		To:      sub.Email,
		Subject: "Welcome to the newsletter",
		HTML:    fmt.Sprintf("<p>%s,</p><p>Thanks for subscribing.</p>", html.EscapeString(greeting)),
		Text:    greeting + ",\n\nThanks for subscribing.\n",
	}
}

func contactNotificationEmail(inbox string, msg domain.ContactMessage) ports.EmailMessage {
	return ports.EmailMessage{
		To:      inbox,
		Subject: "Contact form: " + msg.Subject,
		HTML: fmt.Sprintf("<p>From: %s &lt;%s&gt;</p><p>%s</p>",
			html.EscapeString(msg.Name), html.EscapeString(msg.Email), html.EscapeString(msg.Message)),
		Text: fmt.Sprintf("From: %s <%s>\n\n%s\n", msg.Name, msg.Email, msg.Message),
	}
}
