package domain

import "time"

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxBuyYes  TransactionType = "BUY_YES"
	TxBuyNo   TransactionType = "BUY_NO"
	TxSellYes TransactionType = "SELL_YES"
	TxSellNo  TransactionType = "SELL_NO"
	TxPayout  TransactionType = "PAYOUT"
)

// BuyType returns the BUY transaction type for a side.
func BuyType(side Outcome) TransactionType {
	if side == OutcomeYes {
		return TxBuyYes
	}
	return TxBuyNo
}

// SellType returns the SELL transaction type for a side.
func SellType(side Outcome) TransactionType {
	if side == OutcomeYes {
		return TxSellYes
	}
	return TxSellNo
}

// IsBuy reports whether the type is a BUY entry.
func (t TransactionType) IsBuy() bool {
	return t == TxBuyYes || t == TxBuyNo
}

// IsEarning reports whether the type credits the user (SELL or PAYOUT).
func (t TransactionType) IsEarning() bool {
	return t == TxSellYes || t == TxSellNo || t == TxPayout
}

// Transaction is an immutable, append-only ledger entry. For BUY entries
// AmountTP is the gross amount debited from the user; for SELL entries the
// net payout credited; for PAYOUT entries the settlement amount.
type Transaction struct {
	ID        string
	UserID    string
	MarketID  string
	Type      TransactionType
	AmountTP  float64
	CreatedAt time.Time
}
