package ports

import (
	"context"

	"github.com/google/uuid"
)

const (
	PaymentEventCheckoutCompleted             = "checkout.session.completed"
	PaymentEventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	PaymentEventPaymentSucceeded              = "payment_intent.succeeded"
)

type CheckoutSessionParams struct {
	ProductID     uuid.UUID
	ProductName   string
	Description   string
	Amount        int64
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutCompleted is the typed form of a completed checkout session. Both
// checkout.session.completed and checkout.session.async_payment_succeeded carry it.
// ProductID is uuid.Nil when the session metadata did not carry a valid id.
type CheckoutCompleted struct {
	SessionID       string
	PaymentIntentID string
	Email           string
	CustomerName    string
	Amount          int64
	Currency        string
	Paid            bool
	ProductID       uuid.UUID
}

type PaymentIntentSucceeded struct {
	PaymentIntentID string
}

// PaymentEvent is a verified webhook event. At most one payload field is set,
// matching Type. Unhandled types carry neither.
type PaymentEvent struct {
	ID            string
	Type          string
	Checkout      *CheckoutCompleted
	PaymentIntent *PaymentIntentSucceeded
}

// PaymentProvider creates checkout sessions and verifies webhook deliveries.
// ParseWebhook returns domain.ErrSignatureInvalid for unverifiable payloads.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (CheckoutSession, error)
	ParseWebhook(payload []byte, signatureHeader string) (PaymentEvent, error)
}
