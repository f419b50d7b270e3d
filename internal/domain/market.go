package domain

import "time"

// Outcome identifies one of the two sides of a binary market.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Valid reports whether the outcome is one of the two known sides.
func (o Outcome) Valid() bool {
	return o == OutcomeYes || o == OutcomeNo
}

// Market is a binary prediction market priced from a pair of pool reserves.
// While the market is unresolved both reserves are strictly positive; once
// resolved the reserves are frozen and no longer tradable.
type Market struct {
	ID          string
	Question    string
	Description string
	ImageURL    string
	PoolYes     float64
	PoolNo      float64
	// LiquidityParameter is informational only: the square of half the
	// initial total liquidity, recorded at creation.
	LiquidityParameter float64
	IsResolved         bool
	Outcome            *Outcome // nil until resolved
	EndDate            time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TotalPool returns the sum of both reserves.
func (m Market) TotalPool() float64 {
	return m.PoolYes + m.PoolNo
}

// Pool returns the reserve for the given side.
func (m Market) Pool(side Outcome) float64 {
	if side == OutcomeYes {
		return m.PoolYes
	}
	return m.PoolNo
}

// PricePoint is an immutable price-history sample appended after every
// committed trade.
type PricePoint struct {
	ID        int64
	MarketID  string
	PriceYes  float64
	CreatedAt time.Time
}
