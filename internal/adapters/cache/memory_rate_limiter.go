package cache

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// MemoryRateLimiter keeps fixed-window counters in process memory.
// Only suitable for a single API instance.
type MemoryRateLimiter struct {
	mu   sync.Mutex
	data map[string]window
	now  func() time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{data: make(map[string]window), now: time.Now}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, action, identifier string, limit int, per time.Duration) (bool, error) {
	if limit <= 0 || per <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := action + ":" + identifier
	start := now.Truncate(per)
	w, ok := l.data[key]
	if !ok || w.start.Before(start) {
		l.data[key] = window{start: start, count: 1}
		l.sweep(start, per)
		return true, nil
	}
	if w.count >= limit {
		return false, nil
	}
	w.count++
	l.data[key] = w
	return true, nil
}

// sweep drops windows that closed before the current one so idle keys do not accumulate.
func (l *MemoryRateLimiter) sweep(current time.Time, per time.Duration) {
	if len(l.data) < 1024 {
		return
	}
	for key, w := range l.data {
		if w.start.Add(per).Before(current) {
			delete(l.data, key)
		}
	}
}
