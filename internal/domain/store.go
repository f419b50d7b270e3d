package domain

import "context"

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketStore persists market records. Reserve mutation is deliberately
// absent: only the Ledger may touch pools, balances, and positions.
type MarketStore interface {
	Create(ctx context.Context, m Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	List(ctx context.Context, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	// Ensure fetches the profile for id, creating it with the starting
	// balance on first touch.
	Ensure(ctx context.Context, id, username string) (Profile, error)
	GetByID(ctx context.Context, id string) (Profile, error)
	// ListTop returns up to limit profiles ordered by balance descending,
	// created_at ascending, id ascending.
	ListTop(ctx context.Context, limit int) ([]Profile, error)
}

// PositionStore reads positions. Writes happen only through the Ledger,
// which also reads per-market positions itself inside its transactions.
type PositionStore interface {
	Get(ctx context.Context, userID, marketID string) (Position, error)
	ListByUser(ctx context.Context, userID string) ([]Position, error)
}

// TransactionStore reads the append-only transaction log.
type TransactionStore interface {
	ListByUser(ctx context.Context, userID string, opts ListOpts) ([]Transaction, error)
	ListByMarket(ctx context.Context, marketID string) ([]Transaction, error)
}

// PriceHistoryStore reads the append-only price-history log.
type PriceHistoryStore interface {
	// ListByMarket returns up to limit points ascending by time (the most
	// recent window when limit is hit).
	ListByMarket(ctx context.Context, marketID string, limit int) ([]PricePoint, error)
}

// TradeRequest describes a requested buy or sell against live state. For
// buys AmountTP is the gross TP to invest; for sells Shares is the share
// count to liquidate.
type TradeRequest struct {
	MarketID string
	UserID   string
	Side     Outcome
	AmountTP float64
	Shares   int64
}

// TradeResult reports the committed effects of a trade.
type TradeResult struct {
	Type          TransactionType
	SharesGranted int64
	TPGranted     float64
	Fee           float64
	PriceYes      float64
	NewBalance    float64
}

// Ledger is the authoritative, atomic state-transition path. Every method
// validates against live state and commits all of its effects as one
// indivisible unit; a failure discards all partial effects. Ledger does not
// retry on ErrConflict — that is the caller's choice.
type Ledger interface {
	// Buy debits AmountTP, grows the side's reserve by the net investment,
	// credits shares, and appends a BUY transaction plus a price point.
	Buy(ctx context.Context, req TradeRequest) (TradeResult, error)
	// Sell debits shares, credits the net payout, shrinks the side's
	// reserve by the gross payout, and appends a SELL transaction plus a
	// price point.
	Sell(ctx context.Context, req TradeRequest) (TradeResult, error)
	// Resolve finalizes the outcome, pays every holder of winning shares
	// one TP per share, and freezes the market. Returns the total TP
	// distributed.
	Resolve(ctx context.Context, marketID string, outcome Outcome) (float64, error)
	// Reset deletes all markets, positions, transactions, and price
	// history, and resets every profile to the starting balance. Profiles
	// themselves persist.
	Reset(ctx context.Context) error
}
