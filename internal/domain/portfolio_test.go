package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatePnL_NetIsEarnedMinusSpent(t *testing.T) {
	txs := []Transaction{
		{MarketID: "m1", Type: TxBuyYes, AmountTP: 100},
		{MarketID: "m1", Type: TxBuyNo, AmountTP: 40},
		{MarketID: "m1", Type: TxSellYes, AmountTP: 60},
		{MarketID: "m1", Type: TxPayout, AmountTP: 120},
	}

	pnl := AccumulatePnL(txs, nil)
	require.Len(t, pnl, 1)
	assert.Equal(t, 140.0, pnl[0].Spent)
	assert.Equal(t, 180.0, pnl[0].Earned)
	assert.Equal(t, 40.0, pnl[0].Net)
}

func TestAccumulatePnL_GroupsByMarketInFirstSeenOrder(t *testing.T) {
	txs := []Transaction{
		{MarketID: "m2", Type: TxBuyYes, AmountTP: 10},
		{MarketID: "m1", Type: TxBuyNo, AmountTP: 20},
		{MarketID: "m2", Type: TxSellYes, AmountTP: 5},
	}

	pnl := AccumulatePnL(txs, nil)
	require.Len(t, pnl, 2)
	assert.Equal(t, "m2", pnl[0].MarketID)
	assert.Equal(t, "m1", pnl[1].MarketID)
}

func TestAccumulatePnL_AttachesMarketMetadata(t *testing.T) {
	outcome := OutcomeYes
	markets := map[string]Market{
		"m1": {ID: "m1", Question: "will it rain", IsResolved: true, Outcome: &outcome},
	}
	txs := []Transaction{{MarketID: "m1", Type: TxBuyYes, AmountTP: 10}}

	pnl := AccumulatePnL(txs, markets)
	require.Len(t, pnl, 1)
	assert.Equal(t, "will it rain", pnl[0].Question)
	assert.True(t, pnl[0].IsResolved)
	require.NotNil(t, pnl[0].Outcome)
	assert.Equal(t, OutcomeYes, *pnl[0].Outcome)
}

func TestClosedPnL_FilterRule(t *testing.T) {
	all := []MarketPnL{
		{MarketID: "resolved-loss", IsResolved: true, Spent: 100, Earned: 0},
		{MarketID: "open-realized", IsResolved: false, Spent: 50, Earned: 30},
		{MarketID: "open-unrealized", IsResolved: false, Spent: 50, Earned: 0},
	}

	closed := ClosedPnL(all)
	require.Len(t, closed, 2)
	assert.Equal(t, "resolved-loss", closed[0].MarketID)
	assert.Equal(t, "open-realized", closed[1].MarketID)
}

func TestAccumulatePnL_NoTransactionsNoEntries(t *testing.T) {
	assert.Empty(t, AccumulatePnL(nil, nil))
}
