package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

// CreateCheckout opens a payment-provider checkout session for one product.
func (s *Service) CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (CheckoutResponse, error) {
	product, err := s.resolveProduct(ctx, req.ProductID)
	if err != nil {
		return CheckoutResponse{}, err
	}
	var email string
	if strings.TrimSpace(req.Email) != "" {
		if email, err = normalizeEmail(req.Email); err != nil {
			return CheckoutResponse{}, err
		}
	}

	session, err := s.payments.CreateCheckoutSession(ctx, ports.CheckoutSessionParams{
		ProductID:     product.ID,
		ProductName:   product.Name,
		Description:   product.Description,
		Amount:        product.Price,
		Currency:      product.Currency,
		CustomerEmail: email,
		SuccessURL:    s.cfg.AppURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.cfg.AppURL + "/",
	})
	if err != nil {
		return CheckoutResponse{}, fmt.Errorf("%w: create checkout session: %v", domain.ErrUpstream, err)
	}
	return CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

// CheckoutStatus returns the purchase created for a checkout session, once the webhook has landed.
func (s *Service) CheckoutStatus(ctx context.Context, sessionID string) (CheckoutStatusResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CheckoutStatusResponse{}, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}
	purchase, err := s.purchases.GetByStripeSessionID(ctx, sessionID)
	if err != nil {
		return CheckoutStatusResponse{}, err
	}
	product, err := s.products.GetByID(ctx, purchase.ProductID)
	if err != nil {
		return CheckoutStatusResponse{}, fmt.Errorf("lookup product: %w", err)
	}
	return CheckoutStatusResponse{
		DownloadToken: purchase.DownloadToken,
		Email:         purchase.Email,
		Amount:        purchase.Amount,
		Currency:      purchase.Currency,
		Status:        purchase.Status,
		ProductName:   product.Name,
	}, nil
}

// HandlePaymentWebhook verifies and applies one payment-provider webhook delivery.
// Deliveries are deduplicated by event id; a failed delivery releases its reservation
// so the provider's retry is processed.
func (s *Service) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) (WebhookResponse, error) {
	event, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		webhookEventsTotal.WithLabelValues("unknown", "invalid_signature").Inc()
		return WebhookResponse{}, err
	}

	if err := s.webhookEvents.Reserve(ctx, event.ID, event.Type, s.nowFn()); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			webhookEventsTotal.WithLabelValues(event.Type, "duplicate").Inc()
			return WebhookResponse{Received: true, Duplicate: true}, nil
		}
		return WebhookResponse{}, fmt.Errorf("reserve webhook event: %w", err)
	}

	if err := s.applyPaymentEvent(ctx, event); err != nil {
		if releaseErr := s.webhookEvents.Release(ctx, event.ID); releaseErr != nil {
			appLogger().ErrorContext(ctx, "failed to release webhook event",
				"operation", "handle_payment_webhook",
				"outcome", "failure",
				"event_id", event.ID,
				"error", releaseErr,
			)
		}
		webhookEventsTotal.WithLabelValues(event.Type, "error").Inc()
		return WebhookResponse{}, err
	}

	if err := s.webhookEvents.Complete(ctx, event.ID, s.nowFn()); err != nil {
		appLogger().WarnContext(ctx, "failed to complete webhook event",
			"operation", "handle_payment_webhook",
			"outcome", "warning",
			"event_id", event.ID,
			"error", err,
		)
	}
	webhookEventsTotal.WithLabelValues(event.Type, "processed").Inc()
	return WebhookResponse{Received: true}, nil
}

func (s *Service) applyPaymentEvent(ctx context.Context, event ports.PaymentEvent) error {
	switch {
	case event.Type == ports.PaymentEventCheckoutCompleted && event.Checkout != nil:
		return s.completeCheckout(ctx, *event.Checkout)
	case event.Type == ports.PaymentEventCheckoutAsyncPaymentSucceeded && event.Checkout != nil:
		checkout := *event.Checkout
		checkout.Paid = true
		return s.completeCheckout(ctx, checkout)
	case event.Type == ports.PaymentEventPaymentSucceeded && event.PaymentIntent != nil:
		return s.completePaymentIntent(ctx, *event.PaymentIntent)
	default:
		appLogger().InfoContext(ctx, "ignoring payment event",
			"operation", "handle_payment_webhook",
			"outcome", "ignored",
			"event_type", event.Type,
		)
		return nil
	}
}

// completeCheckout creates the purchase for a completed checkout session. When the session
// already produced a purchase, a paid session settles it if it is still pending.
func (s *Service) completeCheckout(ctx context.Context, checkout ports.CheckoutCompleted) error {
	if checkout.SessionID == "" {
		return fmt.Errorf("%w: checkout session id missing", domain.ErrInvalidInput)
	}
	email, err := normalizeEmail(checkout.Email)
	if err != nil {
		return err
	}

	var product domain.Product
	if checkout.ProductID != uuid.Nil {
		product, err = s.products.GetByID(ctx, checkout.ProductID)
	} else {
		product, err = s.defaultProduct(ctx)
	}
	if err != nil {
		return fmt.Errorf("resolve purchased product: %w", err)
	}

	now := s.nowFn()
	status := domain.PurchaseStatusPending
	if checkout.Paid {
		status = domain.PurchaseStatusCompleted
	}
	currency := strings.ToLower(checkout.Currency)
	if currency == "" {
		currency = product.Currency
	}
	params := ports.PurchaseCreateParams{
		ProductID:             product.ID,
		DownloadToken:         domain.GenerateToken(domain.DownloadTokenBytes),
		Email:                 email,
		CustomerName:          strings.TrimSpace(checkout.CustomerName),
		StripeSessionID:       checkout.SessionID,
		StripePaymentIntentID: checkout.PaymentIntentID,
		Amount:                checkout.Amount,
		Currency:              currency,
		Status:                status,
		MaxDownloads:          s.cfg.MaxDownloads,
		ExpiresAt:             now.Add(s.cfg.PurchaseTTL),
		CreatedAt:             now,
	}

	var outboxEvent *ports.OutboxEvent
	if status == domain.PurchaseStatusCompleted {
		preview := domain.PurchaseRecord{
			DownloadToken: params.DownloadToken,
			Email:         params.Email,
			Amount:        params.Amount,
			Currency:      params.Currency,
			MaxDownloads:  params.MaxDownloads,
			ExpiresAt:     params.ExpiresAt,
		}
		event, err := s.newEmailEvent(eventTypePurchaseConfirmation, email, s.purchaseConfirmationEmail(preview, product))
		if err != nil {
			return err
		}
		outboxEvent = &event
	}

	purchase, err := s.purchases.CreateWithOutboxTx(ctx, params, outboxEvent)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			appLogger().InfoContext(ctx, "purchase already recorded for session",
				"operation", "complete_checkout",
				"outcome", "duplicate",
				"stripe_session_id", checkout.SessionID,
			)
			if !checkout.Paid {
				return nil
			}
			updated, err := s.purchases.MarkCompletedBySession(ctx, checkout.SessionID, now)
			if err != nil {
				return fmt.Errorf("settle pending purchase: %w", err)
			}
			s.sendConfirmations(ctx, "complete_checkout", updated)
			return nil
		}
		return fmt.Errorf("create purchase: %w", err)
	}
	appLogger().InfoContext(ctx, "purchase created",
		"operation", "complete_checkout",
		"outcome", "success",
		"purchase_id", purchase.ID,
		"status", purchase.Status,
	)
	return nil
}

// completePaymentIntent settles pending purchases paid asynchronously and mails their links.
func (s *Service) completePaymentIntent(ctx context.Context, intent ports.PaymentIntentSucceeded) error {
	if intent.PaymentIntentID == "" {
		return fmt.Errorf("%w: payment intent id missing", domain.ErrInvalidInput)
	}
	updated, err := s.purchases.MarkCompletedByPaymentIntent(ctx, intent.PaymentIntentID, s.nowFn())
	if err != nil {
		return fmt.Errorf("complete purchases: %w", err)
	}
	s.sendConfirmations(ctx, "complete_payment_intent", updated)
	appLogger().InfoContext(ctx, "payment intent settled",
		"operation", "complete_payment_intent",
		"outcome", "success",
		"updated_count", len(updated),
	)
	return nil
}

// sendConfirmations mails download links for purchases that just became completed.
func (s *Service) sendConfirmations(ctx context.Context, operation string, purchases []domain.PurchaseRecord) {
	index := s.newProductIndex()
	for _, p := range purchases {
		product, err := index.get(ctx, p.ProductID)
		if err != nil {
			appLogger().WarnContext(ctx, "confirmation email skipped",
				"operation", operation,
				"outcome", "warning",
				"purchase_id", p.ID,
				"error", err,
			)
			continue
		}
		s.enqueueEmail(ctx, eventTypePurchaseConfirmation, p.Email, s.purchaseConfirmationEmail(p, product))
	}
}
