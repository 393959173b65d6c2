package outbound

import (
	"context"
	"time"
)

// RateLimiterPort defines sliding-window rate limiting operations.
type RateLimiterPort interface {
	// Allow records one request for key and reports whether it fits in the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// GetRemaining returns how many requests key may still make in the window.
	GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}
