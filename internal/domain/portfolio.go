package domain

// MarketPnL is the realized spend/earn/net for one market, derived purely
// from the user's transaction log. No persisted aggregate exists; callers
// recompute this on every query.
type MarketPnL struct {
	MarketID   string
	Question   string
	IsResolved bool
	Outcome    *Outcome
	Spent      float64
	Earned     float64
	Net        float64
}

// AccumulatePnL folds a user's transactions into per-market realized PnL.
// BUY entries count as spend, SELL and PAYOUT entries as earnings. Markets
// appear in the result in order of first appearance in txs. The markets map
// supplies question/resolution metadata; entries for unknown markets are
// still accumulated, just without metadata.
func AccumulatePnL(txs []Transaction, markets map[string]Market) []MarketPnL {
	byMarket := make(map[string]*MarketPnL)
	var order []string

	for _, tx := range txs {
		entry, ok := byMarket[tx.MarketID]
		if !ok {
			entry = &MarketPnL{MarketID: tx.MarketID}
			if m, known := markets[tx.MarketID]; known {
				entry.Question = m.Question
				entry.IsResolved = m.IsResolved
				entry.Outcome = m.Outcome
			}
			byMarket[tx.MarketID] = entry
			order = append(order, tx.MarketID)
		}

		switch {
		case tx.Type.IsBuy():
			entry.Spent += tx.AmountTP
		case tx.Type.IsEarning():
			entry.Earned += tx.AmountTP
		}
	}

	out := make([]MarketPnL, 0, len(order))
	for _, id := range order {
		entry := byMarket[id]
		entry.Net = entry.Earned - entry.Spent
		out = append(out, *entry)
	}
	return out
}

// ClosedPnL filters PnL entries down to the reportable view: a market is
// included iff it has resolved, or the user has already realized earnings on
// it by selling before resolution.
func ClosedPnL(all []MarketPnL) []MarketPnL {
	out := make([]MarketPnL, 0, len(all))
	for _, e := range all {
		if e.IsResolved || e.Earned > 0 {
			out = append(out, e)
		}
	}
	return out
}
