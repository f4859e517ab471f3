package ports

import (
	"context"
	"time"
)

// RateLimiter counts requests per (action, identifier) in fixed windows.
// Allow reports false once the window holds more than limit hits.
type RateLimiter interface {
	Allow(ctx context.Context, action, identifier string, limit int, window time.Duration) (bool, error)
}
