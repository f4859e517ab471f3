package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/viralforge/storefront/internal/ports"
)

const emailEventPrefix = "email."

// errUndeliverable marks payloads no retry can fix.
var errUndeliverable = errors.New("undeliverable email payload")

var emailDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_email_deliveries_total",
	Help: "Outbox email delivery attempts by event type and outcome.",
}, []string{"event_type", "outcome"})

// EmailPublisher delivers email.* outbox events through the configured Mailer.
// Other event types have no consumer yet and are only logged.
type EmailPublisher struct {
	logger *slog.Logger
	mailer ports.Mailer
}

func NewEmailPublisher(logger *slog.Logger, mailer ports.Mailer) *EmailPublisher {
	return &EmailPublisher{logger: logger, mailer: mailer}
}

func (p *EmailPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	if !strings.HasPrefix(eventType, emailEventPrefix) {
		p.logger.InfoContext(ctx, "non-email outbox event acknowledged",
			"module", "events.publisher",
			"layer", "adapter",
			"operation", "route_outbox_event",
			"outcome", "skipped",
			"event_type", eventType,
		)
		return nil
	}

	var msg ports.EmailMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: decode %s: %v", errUndeliverable, eventType, err)
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%w: %s has no recipient", errUndeliverable, eventType)
	}
	if err := p.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s: %w", eventType, err)
	}
	return nil
}
