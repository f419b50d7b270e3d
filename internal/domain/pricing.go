package domain

import "math"

// FeeRate is the flat fee applied to every buy and sell.
const FeeRate float64 = 0.02

// PriceYes derives the implied YES probability from the pool reserves.
// The market invariant (both reserves positive while unresolved) keeps the
// result strictly inside (0, 1).
func PriceYes(m Market) float64 {
	return m.PoolYes / m.TotalPool()
}

// PriceNo derives the implied NO probability.
func PriceNo(m Market) float64 {
	return 1 - PriceYes(m)
}

// BuyQuote is an advisory, non-committing computation of a prospective buy.
type BuyQuote struct {
	Side      Outcome
	AmountTP  float64
	Fee       float64
	NetInvest float64
	NewPrice  float64
	Shares    int64
}

// SellQuote is an advisory, non-committing computation of a prospective sell.
// GrossPayout is what the pool pays out; NetPayout is what the user receives
// after the fee.
type SellQuote struct {
	Side        Outcome
	Shares      int64
	Price       float64
	GrossPayout float64
	NetPayout   float64
}

// QuoteBuy computes shares-out for investing amountTP into one side of the
// market. The side's reserve and the total grow by the net investment while
// the opposite reserve is left untouched. This is intentionally not a
// symmetric constant-product rebalance; the asymmetric update is the
// platform's pricing contract and must not be "corrected" here.
func QuoteBuy(m Market, side Outcome, amountTP float64) (BuyQuote, error) {
	if m.IsResolved {
		return BuyQuote{}, ErrMarketResolved
	}
	if amountTP <= 0 {
		return BuyQuote{}, ErrInvalidAmount
	}

	fee := amountTP * FeeRate
	net := amountTP - fee
	newPrice := (m.Pool(side) + net) / (m.TotalPool() + net)

	return BuyQuote{
		Side:      side,
		AmountTP:  amountTP,
		Fee:       fee,
		NetInvest: net,
		NewPrice:  newPrice,
		Shares:    int64(math.Floor(net / newPrice)),
	}, nil
}

// QuoteSell computes the payout for selling sharesIn of one side at the
// current implied price. held is the caller's live share count for that side.
// The quote does not mutate reserves; only the ledger commit does.
func QuoteSell(m Market, side Outcome, sharesIn, held int64) (SellQuote, error) {
	if m.IsResolved {
		return SellQuote{}, ErrMarketResolved
	}
	if sharesIn <= 0 {
		return SellQuote{}, ErrInvalidAmount
	}
	if sharesIn > held {
		return SellQuote{}, ErrInsufficientShares
	}

	price := m.Pool(side) / m.TotalPool()
	gross := float64(sharesIn) * price

	return SellQuote{
		Side:        side,
		Shares:      sharesIn,
		Price:       price,
		GrossPayout: gross,
		NetPayout:   math.Floor(gross * (1 - FeeRate)),
	}, nil
}
