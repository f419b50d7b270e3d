package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahminpazari/marketd/internal/domain"
)

// LedgerStore implements domain.Ledger using PostgreSQL. It is the only
// component that mutates pool reserves, balances, and positions. Every
// operation runs inside a single transaction that row-locks the market (and
// whatever profile and position rows it touches) for the duration of
// read-quote-commit, so two concurrent trades against the same market can
// never both price off the same stale reserves.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a new LedgerStore backed by the given connection pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// mapTxError converts serialization and deadlock SQLSTATEs into
// domain.ErrConflict so callers can distinguish retryable contention from
// hard failures. Retrying is the caller's decision; the ledger never does.
func mapTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return domain.ErrConflict
		}
	}
	return err
}

// lockMarket fetches a market row FOR UPDATE inside tx.
func lockMarket(ctx context.Context, tx pgx.Tx, marketID string) (domain.Market, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1 FOR UPDATE`, marketID)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: lock market %s: %w", marketID, err)
	}
	return m, nil
}

// lockBalance fetches a profile's balance FOR UPDATE inside tx.
func lockBalance(ctx context.Context, tx pgx.Tx, userID string) (float64, error) {
	var balance float64
	err := tx.QueryRow(ctx,
		`SELECT balance FROM profiles WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("postgres: lock profile %s: %w", userID, err)
	}
	return balance, nil
}

// appendTransaction inserts an immutable ledger entry inside tx.
func appendTransaction(ctx context.Context, tx pgx.Tx, userID, marketID string, txType domain.TransactionType, amountTP float64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, market_id, type, amount_tp, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		uuid.New().String(), userID, marketID, string(txType), amountTP,
	)
	if err != nil {
		return fmt.Errorf("postgres: append transaction: %w", err)
	}
	return nil
}

// appendPricePoint records the post-trade implied YES price inside tx.
func appendPricePoint(ctx context.Context, tx pgx.Tx, marketID string, priceYes float64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO market_prices (market_id, price_yes, created_at)
		VALUES ($1, $2, NOW())`,
		marketID, priceYes,
	)
	if err != nil {
		return fmt.Errorf("postgres: append price point: %w", err)
	}
	return nil
}

// Buy validates and commits a buy as one unit: debit balance, grow the side
// reserve by the net investment, credit shares, append the BUY transaction
// and a price point. The quote is re-derived here from the locked rows; any
// client-side preview is advisory only.
func (s *LedgerStore) Buy(ctx context.Context, req domain.TradeRequest) (domain.TradeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.TradeResult{}, fmt.Errorf("postgres: begin buy: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	market, err := lockMarket(ctx, tx, req.MarketID)
	if err != nil {
		return domain.TradeResult{}, mapTxError(err)
	}

	balance, err := lockBalance(ctx, tx, req.UserID)
	if err != nil {
		return domain.TradeResult{}, mapTxError(err)
	}

	quote, err := domain.QuoteBuy(market, req.Side, req.AmountTP)
	if err != nil {
		return domain.TradeResult{}, err
	}
	if balance < req.AmountTP {
		return domain.TradeResult{}, domain.ErrInsufficientBalance
	}

	if _, err := tx.Exec(ctx,
		`UPDATE profiles SET balance = balance - $1 WHERE id = $2`,
		req.AmountTP, req.UserID,
	); err != nil {
		return domain.TradeResult{}, mapTxError(fmt.Errorf("postgres: debit balance: %w", err))
	}

	poolCol := "pool_yes"
	if req.Side == domain.OutcomeNo {
		poolCol = "pool_no"
	}
	if _, err := tx.Exec(ctx,
		`UPDATE markets SET `+poolCol+` = `+poolCol+` + $1, updated_at = NOW() WHERE id = $2`,
		quote.NetInvest, req.MarketID,
	); err != nil {
		return domain.TradeResult{}, mapTxError(fmt.Errorf("postgres: grow reserve: %w", err))
	}

	sharesYes, sharesNo := quote.Shares, int64(0)
	if req.Side == domain.OutcomeNo {
		sharesYes, sharesNo = 0, quote.Shares
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO positions (user_id, market_id, shares_yes, shares_no, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, market_id) DO UPDATE SET
			shares_yes = positions.shares_yes + EXCLUDED.shares_yes,
			shares_no  = positions.shares_no + EXCLUDED.shares_no,
			updated_at = NOW()`,
		req.UserID, req.MarketID, sharesYes, sharesNo,
	); err != nil {
		return domain.TradeResult{}, mapTxError(fmt.Errorf("postgres: credit shares: %w", err))
	}

	if err := appendTransaction(ctx, tx, req.UserID, req.MarketID, domain.BuyType(req.Side), req.AmountTP); err != nil {
		return domain.TradeResult{}, mapTxError(err)
	}

	after := market
	if req.Side == domain.OutcomeYes {
		after.PoolYes += quote.NetInvest
	} else {
		after.PoolNo += quote.NetInvest
	}
	priceYes := domain.PriceYes(after)
	if err := appendPricePoint(ctx, tx, req.MarketID, priceYes); err != nil {
		return domain.TradeResult{}, mapTxError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.TradeResult{}, mapTxError(fmt.Errorf("postgres: commit buy: %w", err))
	}

	return domain.TradeResult{
		Type:          domain.BuyType(req.Side),
		SharesGranted: quote.Shares,
		Fee:           quote.Fee,
		PriceYes:      priceYes,
		NewBalance:    balance - req.AmountTP,
	}, nil
}

// Sell validates and commits a sell as one unit: debit shares, credit the
// net payout, shrink the side reserve by the gross payout so the pool stays
// solvent against what it paid out, append the SELL transaction and a price
// point.
func (s *LedgerStore) Sell(ctx context.Context, req domain.TradeRequest) (domain.TradeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.TradeResult{}, fmt.Errorf("postgres: begin sell: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	market, err := lockMarket(ctx, tx, req.MarketID)
	if err != nil {
		return domain.TradeResult{}, mapTxError(err)
	}

	balance, err := lockBalance(ctx, tx, req.UserID)
	if err != nil {
		return domain.TradeResult{}, mapTxError(err)
	}

	// A missing position row means zero held shares, not a lookup failure.
	var held int64
	sharesCol := "shares_yes"
	if req.Side == domain.OutcomeNo {
		sharesCol = "shares_no"
	}
	err = tx.QueryRow(ctx,
		`SELECT `+sharesCol+` FROM positions WHERE user_id = $1 AND market_id = $2 FOR UPDATE`,
		req.UserID, req.MarketID).Scan(&held)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.TradeResult{}, mapTxError(fmt.Errorf("postgres: lock position: %w", err))
	}

	quote, err := domain.QuoteSell(market, req.Side, req.Shares, held)
	if err != nil {
		return domain.TradeResult{}, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE positions SET `+sharesCol+` = `+sharesCol+` - $1, updated_at = NOW()
		 WHERE user_id = $2 AND market_id = $3`,
		req.Shares, req.UserID, req.MarketID,
	); err != nil {
		return domain.TradeResult{}, mapTxError(fmt.Errorf("postgres: debit shares: %w", err))
	}

	if _, err := tx.Exec(ctx,
		`UPDATE profiles SET balance = balance + $1 WHERE id = $2`,
		quote.NetPayout, req.UserID,
	); err != nil {
		return domain.TradeResult{}, mapTxError(fmt.Errorf("postgres: credit payout: %w", err))
	}

	poolCol := "pool_yes"
	if req.Side == domain.OutcomeNo {
		poolCol = "pool_no"
	}
	if _, err := tx.Exec(ctx,
		`UPDATE markets SET `+poolCol+` = `+poolCol+` - $1, updated_at = NOW() WHERE id = $2`,
		quote.GrossPayout, req.MarketID,
	); err != nil {
		return domain.TradeResult{}, mapTxError(fmt.Errorf("postgres: shrink reserve: %w", err))
	}

	if err := appendTransaction(ctx, tx, req.UserID, req.MarketID, domain.SellType(req.Side), quote.NetPayout); err != nil {
		return domain.TradeResult{}, mapTxError(err)
	}

	after := market
	if req.Side == domain.OutcomeYes {
		after.PoolYes -= quote.GrossPayout
	} else {
		after.PoolNo -= quote.GrossPayout
	}
	priceYes := domain.PriceYes(after)
	if err := appendPricePoint(ctx, tx, req.MarketID, priceYes); err != nil {
		return domain.TradeResult{}, mapTxError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.TradeResult{}, mapTxError(fmt.Errorf("postgres: commit sell: %w", err))
	}

	return domain.TradeResult{
		Type:       domain.SellType(req.Side),
		TPGranted:  quote.NetPayout,
		Fee:        quote.GrossPayout - quote.NetPayout,
		PriceYes:   priceYes,
		NewBalance: balance + quote.NetPayout,
	}, nil
}

// Resolve finalizes a market's outcome and pays out every winning position
// in one atomic pass. Each winning share redeems for exactly one TP with no
// settlement fee; winning shares are consumed. Returns the total TP
// distributed.
func (s *LedgerStore) Resolve(ctx context.Context, marketID string, outcome domain.Outcome) (float64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin resolve: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	market, err := lockMarket(ctx, tx, marketID)
	if err != nil {
		return 0, mapTxError(err)
	}
	if market.IsResolved {
		return 0, domain.ErrAlreadyResolved
	}

	sharesCol := "shares_yes"
	if outcome == domain.OutcomeNo {
		sharesCol = "shares_no"
	}

	rows, err := tx.Query(ctx,
		`SELECT user_id, `+sharesCol+` FROM positions
		 WHERE market_id = $1 AND `+sharesCol+` > 0
		 ORDER BY user_id FOR UPDATE`, marketID)
	if err != nil {
		return 0, mapTxError(fmt.Errorf("postgres: lock positions: %w", err))
	}

	type winner struct {
		userID string
		shares int64
	}
	var winners []winner
	for rows.Next() {
		var w winner
		if err := rows.Scan(&w.userID, &w.shares); err != nil {
			rows.Close()
			return 0, fmt.Errorf("postgres: scan winning position: %w", err)
		}
		winners = append(winners, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, mapTxError(fmt.Errorf("postgres: winning positions rows: %w", err))
	}

	var total float64
	for _, w := range winners {
		payout := float64(w.shares)

		if _, err := tx.Exec(ctx,
			`UPDATE profiles SET balance = balance + $1 WHERE id = $2`,
			payout, w.userID,
		); err != nil {
			return 0, mapTxError(fmt.Errorf("postgres: credit payout: %w", err))
		}

		if err := appendTransaction(ctx, tx, w.userID, marketID, domain.TxPayout, payout); err != nil {
			return 0, mapTxError(err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE positions SET `+sharesCol+` = 0, updated_at = NOW()
			 WHERE user_id = $1 AND market_id = $2`,
			w.userID, marketID,
		); err != nil {
			return 0, mapTxError(fmt.Errorf("postgres: consume shares: %w", err))
		}

		total += payout
	}

	if _, err := tx.Exec(ctx,
		`UPDATE markets SET is_resolved = TRUE, outcome = $1, updated_at = NOW() WHERE id = $2`,
		string(outcome), marketID,
	); err != nil {
		return 0, mapTxError(fmt.Errorf("postgres: freeze market: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, mapTxError(fmt.Errorf("postgres: commit resolve: %w", err))
	}

	return total, nil
}

// Reset wipes all markets, positions, transactions, and price history in one
// transaction and resets every profile to the starting balance. Profile rows
// (the identities) survive.
func (s *LedgerStore) Reset(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range []string{
		`DELETE FROM transactions`,
		`DELETE FROM market_prices`,
		`DELETE FROM positions`,
		`DELETE FROM markets`,
	} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return mapTxError(fmt.Errorf("postgres: reset step %q: %w", stmt, err))
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE profiles SET balance = $1`, domain.StartingBalance,
	); err != nil {
		return mapTxError(fmt.Errorf("postgres: reset balances: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return mapTxError(fmt.Errorf("postgres: commit reset: %w", err))
	}
	return nil
}

// Compile-time interface check.
var _ domain.Ledger = (*LedgerStore)(nil)
