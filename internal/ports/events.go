package ports

import "context"

// EventPublisher delivers claimed outbox messages.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte) error
}

// EmailMessage is the outbox payload of every email.* event.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Mailer sends one message through the email provider.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}
