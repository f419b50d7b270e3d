package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tahminpazari/marketd/internal/domain"
)

// PriceCache implements domain.PriceCache using Redis hashes. Each market's
// latest implied YES price is stored at "marketd:price:{marketID}" with
// fields "price_yes" and "ts" (Unix nanosecond timestamp). Reads from this
// cache are display-only snapshots; the ledger never consults it.
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

func priceKey(marketID string) string {
	return nsKey("price", marketID)
}

// SetPrice stores the latest implied YES price for a market.
func (pc *PriceCache) SetPrice(ctx context.Context, marketID string, priceYes float64, ts time.Time) error {
	fields := map[string]interface{}{
		"price_yes": strconv.FormatFloat(priceYes, 'f', -1, 64),
		"ts":        strconv.FormatInt(ts.UnixNano(), 10),
	}
	if err := pc.rdb.HSet(ctx, priceKey(marketID), fields).Err(); err != nil {
		return fmt.Errorf("redis: set price %s: %w", marketID, err)
	}
	return nil
}

// GetPrice retrieves the latest cached price and its timestamp for a market.
// It returns domain.ErrNotFound when no snapshot exists.
func (pc *PriceCache) GetPrice(ctx context.Context, marketID string) (float64, time.Time, error) {
	vals, err := pc.rdb.HGetAll(ctx, priceKey(marketID)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get price %s: %w", marketID, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	price, err := strconv.ParseFloat(vals["price_yes"], 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse price %s: %w", marketID, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ts %s: %w", marketID, err)
	}

	return price, time.Unix(0, tsNano), nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
