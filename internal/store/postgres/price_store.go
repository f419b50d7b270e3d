package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahminpazari/marketd/internal/domain"
)

// PriceHistoryStore reads the append-only price-history log.
type PriceHistoryStore struct {
	pool *pgxpool.Pool
}

// NewPriceHistoryStore creates a new PriceHistoryStore backed by the given pool.
func NewPriceHistoryStore(pool *pgxpool.Pool) *PriceHistoryStore {
	return &PriceHistoryStore{pool: pool}
}

// ListByMarket returns up to limit price points for a market, ascending by
// time. When the history exceeds limit, the most recent window is returned.
func (s *PriceHistoryStore) ListByMarket(ctx context.Context, marketID string, limit int) ([]domain.PricePoint, error) {
	const query = `
		SELECT id, market_id, price_yes, created_at FROM (
			SELECT id, market_id, price_yes, created_at
			FROM market_prices
			WHERE market_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, marketID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list price history %s: %w", marketID, err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.ID, &p.MarketID, &p.PriceYes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan price point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list price history rows: %w", err)
	}
	return points, nil
}

// Compile-time interface check.
var _ domain.PriceHistoryStore = (*PriceHistoryStore)(nil)
