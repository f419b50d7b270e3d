package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahminpazari/marketd/internal/domain"
)

// TransactionStore reads the append-only transaction log. Inserts happen
// only inside ledger transactions; nothing ever updates or deletes a row
// short of a platform reset.
type TransactionStore struct {
	pool *pgxpool.Pool
}

// NewTransactionStore creates a new TransactionStore backed by the given pool.
func NewTransactionStore(pool *pgxpool.Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

const txCols = `id, user_id, market_id, type, amount_tp, created_at`

// ListByUser returns a user's transactions newest first.
func (s *TransactionStore) ListByUser(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Transaction, error) {
	query := `SELECT ` + txCols + ` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`
	args := []any{userID}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	return s.list(ctx, query, args...)
}

// ListByMarket returns every transaction on a market, oldest first. Used by
// the archiver when exporting a settled market's log.
func (s *TransactionStore) ListByMarket(ctx context.Context, marketID string) ([]domain.Transaction, error) {
	return s.list(ctx,
		`SELECT `+txCols+` FROM transactions WHERE market_id = $1 ORDER BY created_at ASC`,
		marketID)
}

func (s *TransactionStore) list(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var txType string
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.MarketID, &txType, &tx.AmountTP, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan transaction: %w", err)
		}
		tx.Type = domain.TransactionType(txType)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list transactions rows: %w", err)
	}
	return txs, nil
}

// Compile-time interface check.
var _ domain.TransactionStore = (*TransactionStore)(nil)
