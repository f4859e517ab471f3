package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxContactNameLength    = 100
	maxContactSubjectLength = 200
	minContactMessageLength = 10
	maxContactMessageLength = 5000
)

var spamKeywords = []string{"viagra", "casino", "lottery", "winner", "congratulations", "click here", "free money"}

// ValidateContactMessage enforces the contact form policy on already trimmed fields.
// Email format is checked by the caller.
func ValidateContactMessage(msg ContactMessage) error {
	if msg.Name == "" || msg.Email == "" || msg.Subject == "" || msg.Message == "" {
		return fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(msg.Name) > maxContactNameLength {
		return fmt.Errorf("%w: name must be <= %d characters", ErrInvalidInput, maxContactNameLength)
	}
	if utf8.RuneCountInString(msg.Subject) > maxContactSubjectLength {
		return fmt.Errorf("%w: subject must be <= %d characters", ErrInvalidInput, maxContactSubjectLength)
	}
	n := utf8.RuneCountInString(msg.Message)
	if n < minContactMessageLength {
		return fmt.Errorf("%w: message must be at least %d characters", ErrInvalidInput, minContactMessageLength)
	}
	if n > maxContactMessageLength {
		return fmt.Errorf("%w: message must be <= %d characters", ErrInvalidInput, maxContactMessageLength)
	}

	lowered := strings.ToLower(msg.Subject + " " + msg.Message)
	for _, keyword := range spamKeywords {
		if strings.Contains(lowered, keyword) {
			return fmt.Errorf("%w: message flagged as spam", ErrInvalidInput)
		}
	}
	return nil
}
