package domain

import "time"

type AccessReason string

const (
	AccessOK            AccessReason = "OK"
	AccessNotCompleted  AccessReason = "NOT_COMPLETED"
	AccessExpired       AccessReason = "EXPIRED"
	AccessLimitExceeded AccessReason = "LIMIT_EXCEEDED"
)

// AccessDecision is the outcome of Evaluate.
type AccessDecision struct {
	Permitted          bool
	Reason             AccessReason
	DownloadsRemaining int
}

// Evaluate decides whether p may be downloaded at now. It has no side effects.
// Checks run in a fixed order and the first failing one names the reason.
func Evaluate(p PurchaseRecord, now time.Time) AccessDecision {
	remaining := p.MaxDownloads - p.DownloadCount
	if remaining < 0 {
		remaining = 0
	}
	decision := AccessDecision{DownloadsRemaining: remaining}

	switch {
	case p.Status != PurchaseStatusCompleted:
		decision.Reason = AccessNotCompleted
	case now.After(p.ExpiresAt):
		decision.Reason = AccessExpired
	case p.DownloadCount >= p.MaxDownloads:
		decision.Reason = AccessLimitExceeded
	default:
		decision.Permitted = true
		decision.Reason = AccessOK
	}
	return decision
}

// Err returns the sentinel error matching a denied decision, or nil when permitted.
func (d AccessDecision) Err() error {
	switch d.Reason {
	case AccessOK:
		return nil
	case AccessNotCompleted:
		return ErrNotCompleted
	case AccessExpired:
		return ErrPurchaseExpired
	case AccessLimitExceeded:
		return ErrDownloadLimitReached
	default:
		return ErrNotCompleted
	}
}
