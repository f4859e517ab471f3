package ports

import (
	"context"
	"time"
)

// ObjectStore issues time-limited retrieval URLs for stored files.
type ObjectStore interface {
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
