package email

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/viralforge/storefront/internal/ports"
)

func TestNewMailerFallsBackToLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mailer, err := NewMailer("", "shop@example.com", logger)
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}
	if _, ok := mailer.(*LoggingMailer); !ok {
		t.Fatalf("expected logging mailer, got %T", mailer)
	}
	link := "https://shop.example.com/login/verify?token=deadbeefcafe&email=a%40example.com"
	if err := mailer.Send(context.Background(), ports.EmailMessage{
		To:      "a@example.com",
		Subject: "Your login link",
		Text:    "Sign in: " + link,
		HTML:    `<a href="` + link + `">Sign in</a>`,
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	logged := buf.String()
	if !strings.Contains(logged, `"subject":"Your login link"`) || !strings.Contains(logged, `"to":"a@example.com"`) {
		t.Fatalf("expected logged envelope, got %s", logged)
	}
	if strings.Contains(logged, "deadbeefcafe") || strings.Contains(logged, "Sign in") {
		t.Fatalf("message body must not be logged, got %s", logged)
	}
}

func TestNewMailerUsesResendWithKey(t *testing.T) {
	t.Parallel()

	mailer, err := NewMailer("re_test_key", "shop@example.com", slog.Default())
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}
	if _, ok := mailer.(*ResendMailer); !ok {
		t.Fatalf("expected resend mailer, got %T", mailer)
	}
	if _, err := NewResendMailer("re_test_key", ""); err == nil {
		t.Fatalf("expected error for empty sender")
	}
}
