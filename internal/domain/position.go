package domain

import "time"

// Position holds a user's share counts in one market. A position is created
// on the first trade for the (user, market) pair and updated by every
// subsequent trade; resolution consumes the winning side's shares.
type Position struct {
	UserID    string
	MarketID  string
	SharesYes int64
	SharesNo  int64
	UpdatedAt time.Time
}

// Shares returns the share count held for the given side.
func (p Position) Shares(side Outcome) int64 {
	if side == OutcomeYes {
		return p.SharesYes
	}
	return p.SharesNo
}

// Empty reports whether the position holds no shares on either side.
func (p Position) Empty() bool {
	return p.SharesYes == 0 && p.SharesNo == 0
}
