package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoginToken is a single-use credential mailed to a customer.
// IsUsed flips to true exactly once, in the same statement that verifies it.
type LoginToken struct {
	ID        uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}

// UserSession is created by a verified login link and deactivated on logout.
// Sessions are never deleted so they remain available for audit.
type UserSession struct {
	ID             uuid.UUID
	Email          string
	SessionToken   string
	ExpiresAt      time.Time
	IsActive       bool
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// Valid reports whether the session may authenticate a request at now.
func (s UserSession) Valid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
