package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Adapters map it to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized hides which part of a login or session check failed.
	// Callers must not learn whether the email, token or expiry was wrong.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
	// ErrNotCompleted denies a download for a purchase whose payment has not completed.
	ErrNotCompleted = errors.New("purchase not completed")
	// ErrPurchaseExpired denies a download once the access window has closed.
	ErrPurchaseExpired      = errors.New("download link expired")
	ErrDownloadLimitReached = errors.New("download limit reached")
	// ErrSignatureInvalid is returned for webhook payloads or signed URLs that fail verification.
	ErrSignatureInvalid = errors.New("invalid signature")
	// ErrUpstream wraps failures of the payment, mail or object-store collaborators.
	ErrUpstream = errors.New("upstream failure")
)
