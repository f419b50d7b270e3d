package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahminpazari/marketd/internal/domain"
	"github.com/tahminpazari/marketd/internal/server/middleware"
	"github.com/tahminpazari/marketd/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// Service fakes.
// ---------------------------------------------------------------------------

type fakeMarketService struct {
	market      domain.Market
	cachedPrice float64
	err         error
}

func (f *fakeMarketService) Create(_ context.Context, in service.CreateMarketInput) (domain.Market, error) {
	if f.err != nil {
		return domain.Market{}, f.err
	}
	m := f.market
	m.Question = in.Question
	return m, nil
}

func (f *fakeMarketService) Get(_ context.Context, _ string) (domain.Market, error) {
	return f.market, f.err
}

func (f *fakeMarketService) List(_ context.Context, _ domain.ListOpts) ([]domain.Market, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return []domain.Market{f.market}, 1, nil
}

func (f *fakeMarketService) History(_ context.Context, _ string) ([]domain.PricePoint, error) {
	return nil, f.err
}

func (f *fakeMarketService) DisplayPrice(_ context.Context, m domain.Market) float64 {
	if f.cachedPrice != 0 {
		return f.cachedPrice
	}
	return domain.PriceYes(m)
}

type fakeTradeService struct {
	result domain.TradeResult
	err    error
}

func (f *fakeTradeService) Buy(_ context.Context, _ domain.Identity, _ string, _ domain.Outcome, _ float64) (domain.TradeResult, error) {
	return f.result, f.err
}

func (f *fakeTradeService) Sell(_ context.Context, _ domain.Identity, _ string, _ domain.Outcome, _ int64) (domain.TradeResult, error) {
	return f.result, f.err
}

func (f *fakeTradeService) QuoteBuy(_ context.Context, _ string, _ domain.Outcome, amountTP float64) (domain.BuyQuote, error) {
	if f.err != nil {
		return domain.BuyQuote{}, f.err
	}
	return domain.BuyQuote{Side: domain.OutcomeYes, AmountTP: amountTP, Fee: amountTP * 0.02}, nil
}

func (f *fakeTradeService) QuoteSell(_ context.Context, _, _ string, _ domain.Outcome, shares int64) (domain.SellQuote, error) {
	if f.err != nil {
		return domain.SellQuote{}, f.err
	}
	return domain.SellQuote{Side: domain.OutcomeYes, Shares: shares}, nil
}

type fakeLeaderboardService struct {
	lb  service.Leaderboard
	err error
}

func (f *fakeLeaderboardService) Get(_ context.Context, _ string) (service.Leaderboard, error) {
	return f.lb, f.err
}

// ---------------------------------------------------------------------------
// Tests.
// ---------------------------------------------------------------------------

func TestGetMarketNotFound(t *testing.T) {
	h := NewMarketHandler(&fakeMarketService{err: domain.ErrNotFound}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/markets/missing", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()

	h.GetMarket(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestGetMarketIncludesPrices(t *testing.T) {
	m := domain.Market{ID: "m1", Question: "Rain?", PoolYes: 600, PoolNo: 400, CreatedAt: time.Now().UTC()}
	h := NewMarketHandler(&fakeMarketService{market: m}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/markets/m1", nil)
	req.SetPathValue("id", "m1")
	rec := httptest.NewRecorder()

	h.GetMarket(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got marketView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.InDelta(t, 0.6, got.PriceYes, 1e-12)
	assert.InDelta(t, 0.4, got.PriceNo, 1e-12)
}

func TestGetMarketServesDisplayPrice(t *testing.T) {
	// The view reports the service's display price, not a recomputation
	// from the reserves in the row.
	m := domain.Market{ID: "m1", Question: "Rain?", PoolYes: 600, PoolNo: 400, CreatedAt: time.Now().UTC()}
	h := NewMarketHandler(&fakeMarketService{market: m, cachedPrice: 0.63}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/markets/m1", nil)
	req.SetPathValue("id", "m1")
	rec := httptest.NewRecorder()

	h.GetMarket(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got marketView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.InDelta(t, 0.63, got.PriceYes, 1e-12)
	assert.InDelta(t, 0.37, got.PriceNo, 1e-12)
}

func TestBuyRequiresAuthentication(t *testing.T) {
	h := NewTradeHandler(&fakeTradeService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/markets/m1/buy", strings.NewReader(`{"side":"YES","amount_tp":100}`))
	req.SetPathValue("id", "m1")
	rec := httptest.NewRecorder()

	h.Buy(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuyReturnsCommittedResult(t *testing.T) {
	h := NewTradeHandler(&fakeTradeService{result: domain.TradeResult{
		Type:          domain.TxBuyYes,
		SharesGranted: 179,
		Fee:           2,
		PriceYes:      0.5446,
		NewBalance:    900,
	}}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/markets/m1/buy", strings.NewReader(`{"side":"yes","amount_tp":100}`))
	req.SetPathValue("id", "m1")
	req = req.WithContext(middleware.WithIdentity(req.Context(), domain.Identity{UserID: "u1"}))
	rec := httptest.NewRecorder()

	h.Buy(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got tradeResultView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "BUY_YES", got.Type)
	assert.Equal(t, int64(179), got.SharesGranted)
	assert.Equal(t, 900.0, got.NewBalance)
}

func TestBuyMapsInsufficientBalance(t *testing.T) {
	h := NewTradeHandler(&fakeTradeService{err: domain.ErrInsufficientBalance}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/markets/m1/buy", strings.NewReader(`{"side":"YES","amount_tp":1e9}`))
	req.SetPathValue("id", "m1")
	req = req.WithContext(middleware.WithIdentity(req.Context(), domain.Identity{UserID: "u1"}))
	rec := httptest.NewRecorder()

	h.Buy(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestQuoteRejectsUnknownKind(t *testing.T) {
	h := NewTradeHandler(&fakeTradeService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/markets/m1/quote", strings.NewReader(`{"kind":"swap"}`))
	req.SetPathValue("id", "m1")
	rec := httptest.NewRecorder()

	h.Quote(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaderboardMasksOtherUsers(t *testing.T) {
	lb := service.Leaderboard{
		Entries: []domain.RankedProfile{
			{Profile: domain.Profile{ID: "u1", Username: "alice@example.com", Balance: 1500}, Rank: 1},
			{Profile: domain.Profile{ID: "u2", Username: "bobby@example.com", Balance: 1200}, Rank: 2},
		},
		MyRank: 2,
	}
	h := NewLeaderboardHandler(&fakeLeaderboardService{lb: lb}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), domain.Identity{UserID: "u2"}))
	rec := httptest.NewRecorder()

	h.GetLeaderboard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got leaderboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "ali***@example.com", got.Entries[0].Username)
	assert.Equal(t, "bobby@example.com", got.Entries[1].Username)
	assert.True(t, got.Entries[1].IsMe)
	assert.Equal(t, 2, got.MyRank)
}

func TestMaskUsername(t *testing.T) {
	assert.Equal(t, "ali***@example.com", maskUsername("alice@example.com"))
	assert.Equal(t, "ab***@x.io", maskUsername("ab@x.io"))
	assert.Equal(t, "han***", maskUsername("handle42"))
	assert.Equal(t, "anonymous", maskUsername(""))
}
