package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/viralforge/storefront/internal/ports"
)

// ResendMailer delivers messages through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) (*ResendMailer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("resend api key is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, errors.New("email sender is required")
	}
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}, nil
}

func (m *ResendMailer) Send(ctx context.Context, msg ports.EmailMessage) error {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	slog.Default().InfoContext(ctx, "email sent",
		"module", "email",
		"layer", "adapter",
		"operation", "send_email",
		"outcome", "success",
		"provider_id", sent.Id,
	)
	return nil
}

// LoggingMailer records that a message was due instead of sending it. Used when no provider key is configured.
// Bodies carry live login links and download tokens, so only the envelope is logged.
type LoggingMailer struct {
	logger *slog.Logger
}

func NewLoggingMailer(logger *slog.Logger) *LoggingMailer {
	return &LoggingMailer{logger: logger}
}

func (m *LoggingMailer) Send(ctx context.Context, msg ports.EmailMessage) error {
	m.logger.InfoContext(ctx, "email delivery skipped; no provider configured",
		"module", "email",
		"layer", "adapter",
		"operation", "send_email",
		"outcome", "skipped",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// NewMailer picks the Resend mailer when an API key is present and the logging mailer otherwise.
func NewMailer(apiKey, from string, logger *slog.Logger) (ports.Mailer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return NewLoggingMailer(logger), nil
	}
	return NewResendMailer(apiKey, from)
}
