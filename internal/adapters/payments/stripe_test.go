package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func newTestProvider(t *testing.T) *StripeProvider {
	t.Helper()
	provider, err := NewStripeProvider("sk_test_dummy", testWebhookSecret)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return provider
}

func TestParseWebhookCheckoutCompleted(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_123",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"amount_total": 300,
			"currency": "usd",
			"payment_status": "paid",
			"payment_intent": "pi_123",
			"customer_details": {"email": "buyer@example.com", "name": "Ada Buyer"},
			"metadata": {"product_id": %q}
		}}
	}`, productID.String()))

	event, err := newTestProvider(t).ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("parse webhook: %v", err)
	}
	if event.ID != "evt_123" || event.Type != ports.PaymentEventCheckoutCompleted {
		t.Fatalf("unexpected event header %+v", event)
	}
	c := event.Checkout
	if c == nil {
		t.Fatalf("checkout payload missing")
	}
	if c.SessionID != "cs_test_1" || c.PaymentIntentID != "pi_123" || !c.Paid {
		t.Fatalf("unexpected checkout %+v", c)
	}
	if c.Email != "buyer@example.com" || c.CustomerName != "Ada Buyer" {
		t.Fatalf("unexpected customer %+v", c)
	}
	if c.Amount != 300 || c.Currency != "usd" || c.ProductID != productID {
		t.Fatalf("unexpected amount or product %+v", c)
	}
}

func TestParseWebhookPaymentIntentSucceeded(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_2","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_9","object":"payment_intent"}}}`)
	event, err := newTestProvider(t).ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("parse webhook: %v", err)
	}
	if event.PaymentIntent == nil || event.PaymentIntent.PaymentIntentID != "pi_9" {
		t.Fatalf("unexpected payment intent %+v", event.PaymentIntent)
	}
	if event.Checkout != nil {
		t.Fatalf("checkout payload must be nil for payment intent events")
	}
}

func TestParseWebhookCheckoutAsyncPaymentSucceeded(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"id": "evt_3",
		"object": "event",
		"type": "checkout.session.async_payment_succeeded",
		"data": {"object": {
			"id": "cs_test_2",
			"object": "checkout.session",
			"amount_total": 300,
			"currency": "usd",
			"payment_status": "paid",
			"payment_intent": "pi_456",
			"customer_details": {"email": "buyer@example.com"}
		}}
	}`)
	event, err := newTestProvider(t).ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("parse webhook: %v", err)
	}
	if event.Type != ports.PaymentEventCheckoutAsyncPaymentSucceeded || event.Checkout == nil {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Checkout.SessionID != "cs_test_2" || !event.Checkout.Paid || event.Checkout.ProductID != uuid.Nil {
		t.Fatalf("unexpected checkout %+v", event.Checkout)
	}
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)
	provider := newTestProvider(t)

	cases := map[string]string{
		"wrong secret": signPayload(payload, "whsec_other", time.Now()),
		"stale":        signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour)),
		"missing":      "",
	}
	for name, header := range cases {
		if _, err := provider.ParseWebhook(payload, header); !errors.Is(err, domain.ErrSignatureInvalid) {
			t.Fatalf("%s: expected ErrSignatureInvalid, got %v", name, err)
		}
	}
}

func TestParseWebhookIgnoresUnknownTypes(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_4","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)
	event, err := newTestProvider(t).ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("parse webhook: %v", err)
	}
	if event.Checkout != nil || event.PaymentIntent != nil {
		t.Fatalf("unknown events must carry no payload")
	}
}
