package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahminpazari/marketd/internal/domain"
)

func TestPortfolioAssemblesHoldingsAndPnL(t *testing.T) {
	yes := domain.OutcomeYes
	resolved := domain.Market{
		ID: "m-done", Question: "Settled?", PoolYes: 300, PoolNo: 700,
		IsResolved: true, Outcome: &yes,
	}
	open := domain.Market{ID: "m-open", Question: "Still trading?", PoolYes: 600, PoolNo: 400}

	profiles := &stubProfileStore{}
	positions := &stubPositionStore{byUser: map[string][]domain.Position{
		"u1": {
			{UserID: "u1", MarketID: "m-open", SharesYes: 120},
			{UserID: "u1", MarketID: "m-done"}, // emptied by resolution
		},
	}}
	markets := &stubMarketStore{markets: map[string]domain.Market{
		"m-open": open, "m-done": resolved,
	}}
	txs := &stubTxStore{byUser: map[string][]domain.Transaction{
		"u1": {
			{MarketID: "m-done", Type: domain.TxBuyYes, AmountTP: 100},
			{MarketID: "m-done", Type: domain.TxPayout, AmountTP: 150},
			{MarketID: "m-open", Type: domain.TxBuyYes, AmountTP: 70},
		},
	}}

	svc := NewPortfolioService(profiles, positions, markets, txs, discardLogger())

	p, err := svc.Get(context.Background(), domain.Identity{UserID: "u1", Username: "alice@example.com"})
	require.NoError(t, err)

	assert.Equal(t, domain.StartingBalance, p.Profile.Balance)

	// Only the non-empty position shows up as a holding.
	require.Len(t, p.Holdings, 1)
	assert.Equal(t, "m-open", p.Holdings[0].Market.ID)
	assert.InDelta(t, 0.6, p.Holdings[0].PriceYes, 1e-12)
	assert.InDelta(t, 0.4, p.Holdings[0].PriceNo, 1e-12)

	// Only the resolved market reaches the closed PnL view; the open
	// market has spend but no earnings yet.
	require.Len(t, p.PnL, 1)
	assert.Equal(t, "m-done", p.PnL[0].MarketID)
	assert.Equal(t, 50.0, p.PnL[0].Net)
}

func TestPortfolioExcludesResolvedMarketHoldings(t *testing.T) {
	yes := domain.OutcomeYes
	settled := domain.Market{
		ID: "m-done", Question: "Settled?", PoolYes: 600, PoolNo: 400,
		IsResolved: true, Outcome: &yes,
	}

	// Resolution zeroes only the winning side, so losing shares keep their
	// count. They must still not surface as open holdings.
	positions := &stubPositionStore{byUser: map[string][]domain.Position{
		"u1": {{UserID: "u1", MarketID: "m-done", SharesNo: 50}},
	}}
	markets := &stubMarketStore{markets: map[string]domain.Market{"m-done": settled}}

	svc := NewPortfolioService(&stubProfileStore{}, positions, markets, &stubTxStore{}, discardLogger())

	p, err := svc.Get(context.Background(), domain.Identity{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, p.Holdings)
}

func TestPortfolioFreshUserIsEmpty(t *testing.T) {
	svc := NewPortfolioService(&stubProfileStore{}, &stubPositionStore{}, &stubMarketStore{}, &stubTxStore{}, discardLogger())

	p, err := svc.Get(context.Background(), domain.Identity{UserID: "new", Username: "new@example.com"})
	require.NoError(t, err)

	assert.Equal(t, domain.StartingBalance, p.Profile.Balance)
	assert.Empty(t, p.Holdings)
	assert.Empty(t, p.PnL)
}

func TestPortfolioSkipsPositionsOfMissingMarkets(t *testing.T) {
	positions := &stubPositionStore{byUser: map[string][]domain.Position{
		"u1": {{UserID: "u1", MarketID: "gone", SharesNo: 10}},
	}}
	svc := NewPortfolioService(&stubProfileStore{}, positions, &stubMarketStore{}, &stubTxStore{}, discardLogger())

	p, err := svc.Get(context.Background(), domain.Identity{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, p.Holdings)
}

func TestLeaderboardRanksAndFindsCaller(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	profiles := &stubProfileStore{top: []domain.Profile{
		{ID: "u-rich", Balance: 1500, CreatedAt: base},
		{ID: "u-mid", Balance: 1200, CreatedAt: base.Add(time.Hour)},
		{ID: "u-poor", Balance: 900, CreatedAt: base.Add(2 * time.Hour)},
	}}
	svc := NewLeaderboardService(profiles, discardLogger())

	lb, err := svc.Get(context.Background(), "u-mid")
	require.NoError(t, err)

	require.Len(t, lb.Entries, 3)
	assert.Equal(t, "u-rich", lb.Entries[0].ID)
	assert.Equal(t, 1, lb.Entries[0].Rank)
	assert.Equal(t, 2, lb.MyRank)
}

func TestLeaderboardUnrankedCaller(t *testing.T) {
	profiles := &stubProfileStore{top: []domain.Profile{{ID: "u1", Balance: 1000}}}
	svc := NewLeaderboardService(profiles, discardLogger())

	lb, err := svc.Get(context.Background(), "stranger")
	require.NoError(t, err)
	assert.Equal(t, 0, lb.MyRank)
}
