package domain

import (
	"context"
	"time"
)

// PriceCache holds the latest implied YES price per market for display.
// Cached reads may be stale and lock-free; they are presentation-only and
// must never feed a trade commit.
type PriceCache interface {
	SetPrice(ctx context.Context, marketID string, priceYes float64, ts time.Time) error
	GetPrice(ctx context.Context, marketID string) (float64, time.Time, error)
}

// RateLimiter provides distributed rate limiting for the API surface.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus publishes settlement events (trades, resolutions, resets) for
// out-of-process consumers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
