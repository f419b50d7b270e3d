package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahminpazari/marketd/internal/domain"
)

// PositionStore implements the read side of domain.PositionStore using
// PostgreSQL. Position writes happen only inside ledger transactions.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionCols = `user_id, market_id, shares_yes, shares_no, updated_at`

// Get retrieves the position for a (user, market) pair.
func (s *PositionStore) Get(ctx context.Context, userID, marketID string) (domain.Position, error) {
	var p domain.Position
	err := s.pool.QueryRow(ctx,
		`SELECT `+positionCols+` FROM positions WHERE user_id = $1 AND market_id = $2`,
		userID, marketID).
		Scan(&p.UserID, &p.MarketID, &p.SharesYes, &p.SharesNo, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %s/%s: %w", userID, marketID, err)
	}
	return p, nil
}

// ListByUser returns all positions held by a user.
func (s *PositionStore) ListByUser(ctx context.Context, userID string) ([]domain.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+positionCols+` FROM positions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(&p.UserID, &p.MarketID, &p.SharesYes, &p.SharesNo, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list positions rows: %w", err)
	}
	return positions, nil
}

// Compile-time interface check.
var _ domain.PositionStore = (*PositionStore)(nil)
