package domain

import (
	"time"

	"github.com/google/uuid"
)

type NewsletterSubscriber struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Source    string
	CreatedAt time.Time
}

type ContactMessage struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Subject   string
	Message   string
	IPAddress string
	CreatedAt time.Time
}
