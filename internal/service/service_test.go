package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/tahminpazari/marketd/internal/domain"
	"github.com/tahminpazari/marketd/internal/notify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// Stub stores. Each records calls and serves canned data; methods a test
// does not exercise return zero values.
// ---------------------------------------------------------------------------

type stubMarketStore struct {
	markets map[string]domain.Market
	created []domain.Market
	count   int64
}

func (s *stubMarketStore) Create(_ context.Context, m domain.Market) error {
	s.created = append(s.created, m)
	if s.markets == nil {
		s.markets = map[string]domain.Market{}
	}
	s.markets[m.ID] = m
	return nil
}

func (s *stubMarketStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *stubMarketStore) List(_ context.Context, _ domain.ListOpts) ([]domain.Market, error) {
	out := make([]domain.Market, 0, len(s.markets))
	for _, m := range s.markets {
		out = append(out, m)
	}
	return out, nil
}

func (s *stubMarketStore) Count(_ context.Context) (int64, error) { return s.count, nil }

type stubProfileStore struct {
	profiles map[string]domain.Profile
	ensured  []string
	top      []domain.Profile
}

func (s *stubProfileStore) Ensure(_ context.Context, id, username string) (domain.Profile, error) {
	s.ensured = append(s.ensured, id)
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	p := domain.Profile{ID: id, Username: username, Balance: domain.StartingBalance, CreatedAt: time.Now().UTC()}
	if s.profiles == nil {
		s.profiles = map[string]domain.Profile{}
	}
	s.profiles[id] = p
	return p, nil
}

func (s *stubProfileStore) GetByID(_ context.Context, id string) (domain.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *stubProfileStore) ListTop(_ context.Context, limit int) ([]domain.Profile, error) {
	if len(s.top) > limit {
		return s.top[:limit], nil
	}
	return s.top, nil
}

type stubPositionStore struct {
	positions map[string]domain.Position // keyed userID+"/"+marketID
	byUser    map[string][]domain.Position
}

func (s *stubPositionStore) Get(_ context.Context, userID, marketID string) (domain.Position, error) {
	p, ok := s.positions[userID+"/"+marketID]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *stubPositionStore) ListByUser(_ context.Context, userID string) ([]domain.Position, error) {
	return s.byUser[userID], nil
}

type stubTxStore struct {
	byUser map[string][]domain.Transaction
}

func (s *stubTxStore) ListByUser(_ context.Context, userID string, opts domain.ListOpts) ([]domain.Transaction, error) {
	txs := s.byUser[userID]
	if opts.Offset >= len(txs) {
		return nil, nil
	}
	txs = txs[opts.Offset:]
	if opts.Limit > 0 && len(txs) > opts.Limit {
		txs = txs[:opts.Limit]
	}
	return txs, nil
}

func (s *stubTxStore) ListByMarket(_ context.Context, _ string) ([]domain.Transaction, error) {
	return nil, nil
}

type stubHistoryStore struct {
	points []domain.PricePoint
}

func (s *stubHistoryStore) ListByMarket(_ context.Context, _ string, limit int) ([]domain.PricePoint, error) {
	if len(s.points) > limit {
		return s.points[:limit], nil
	}
	return s.points, nil
}

// ---------------------------------------------------------------------------
// Stub ledger, cache, bus, notifier, archiver.
// ---------------------------------------------------------------------------

type stubLedger struct {
	buys     []domain.TradeRequest
	sells    []domain.TradeRequest
	result   domain.TradeResult
	payout   float64
	resolved []string
	resets   int
	err      error
}

func (s *stubLedger) Buy(_ context.Context, req domain.TradeRequest) (domain.TradeResult, error) {
	if s.err != nil {
		return domain.TradeResult{}, s.err
	}
	s.buys = append(s.buys, req)
	return s.result, nil
}

func (s *stubLedger) Sell(_ context.Context, req domain.TradeRequest) (domain.TradeResult, error) {
	if s.err != nil {
		return domain.TradeResult{}, s.err
	}
	s.sells = append(s.sells, req)
	return s.result, nil
}

func (s *stubLedger) Resolve(_ context.Context, marketID string, _ domain.Outcome) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.resolved = append(s.resolved, marketID)
	return s.payout, nil
}

func (s *stubLedger) Reset(_ context.Context) error {
	if s.err != nil {
		return s.err
	}
	s.resets++
	return nil
}

type stubPriceCache struct {
	set map[string]float64
	err error
}

func (s *stubPriceCache) SetPrice(_ context.Context, marketID string, priceYes float64, _ time.Time) error {
	if s.err != nil {
		return s.err
	}
	if s.set == nil {
		s.set = map[string]float64{}
	}
	s.set[marketID] = priceYes
	return nil
}

func (s *stubPriceCache) GetPrice(_ context.Context, marketID string) (float64, time.Time, error) {
	v, ok := s.set[marketID]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return v, time.Now().UTC(), nil
}

type stubBus struct {
	published map[string][][]byte
	err       error
}

func (s *stubBus) Publish(_ context.Context, channel string, payload []byte) error {
	if s.err != nil {
		return s.err
	}
	if s.published == nil {
		s.published = map[string][][]byte{}
	}
	s.published[channel] = append(s.published[channel], payload)
	return nil
}

func (s *stubBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

type stubAnnouncer struct {
	events []notify.Event
	err    error
}

func (s *stubAnnouncer) Announce(_ context.Context, event notify.Event, _, _ string) error {
	s.events = append(s.events, event)
	return s.err
}

type stubArchiver struct {
	archived []string
	records  int64
	err      error
}

func (s *stubArchiver) ArchiveMarket(_ context.Context, marketID string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.archived = append(s.archived, marketID)
	return s.records, nil
}
