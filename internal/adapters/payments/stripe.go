package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

const metadataProductID = "product_id"

// StripeProvider implements ports.PaymentProvider on top of Stripe Checkout.
// Raw Stripe payloads are decoded here and never leave the adapter.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) (*StripeProvider, error) {
	if strings.TrimSpace(webhookSecret) == "" {
		return nil, errors.New("stripe webhook secret is required")
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, webhookSecret: webhookSecret}, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params ports.CheckoutSessionParams) (ports.CheckoutSession, error) {
	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(params.ProductName),
	}
	if params.Description != "" {
		productData.Description = stripe.String(params.Description)
	}

	req := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(strings.ToLower(params.Currency)),
					UnitAmount:  stripe.Int64(params.Amount),
					ProductData: productData,
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{metadataProductID: params.ProductID.String()},
		},
	}
	if params.CustomerEmail != "" {
		req.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	req.Context = ctx
	req.AddMetadata(metadataProductID, params.ProductID.String())

	session, err := p.api.CheckoutSessions.New(req)
	if err != nil {
		return ports.CheckoutSession{}, fmt.Errorf("create stripe checkout session: %w", err)
	}
	return ports.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signatureHeader string) (ports.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return ports.PaymentEvent{}, fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}
	return toPaymentEvent(event)
}

func toPaymentEvent(event stripe.Event) (ports.PaymentEvent, error) {
	out := ports.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case ports.PaymentEventCheckoutCompleted, ports.PaymentEventCheckoutAsyncPaymentSucceeded:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return ports.PaymentEvent{}, fmt.Errorf("%w: decode checkout session: %v", domain.ErrInvalidInput, err)
		}
		out.Checkout = toCheckoutCompleted(session)
	case ports.PaymentEventPaymentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return ports.PaymentEvent{}, fmt.Errorf("%w: decode payment intent: %v", domain.ErrInvalidInput, err)
		}
		out.PaymentIntent = &ports.PaymentIntentSucceeded{PaymentIntentID: intent.ID}
	}
	return out, nil
}

func toCheckoutCompleted(session stripe.CheckoutSession) *ports.CheckoutCompleted {
	out := &ports.CheckoutCompleted{
		SessionID: session.ID,
		Email:     session.CustomerEmail,
		Amount:    session.AmountTotal,
		Currency:  string(session.Currency),
		Paid:      session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	if details := session.CustomerDetails; details != nil {
		if details.Email != "" {
			out.Email = details.Email
		}
		out.CustomerName = details.Name
	}
	if raw, ok := session.Metadata[metadataProductID]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			out.ProductID = id
		}
	}
	return out
}
