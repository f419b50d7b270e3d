package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tahminpazari/marketd/internal/domain"
)

// tradesChannel is the bus channel carrying committed trade events.
const tradesChannel = "trades"

// TradeService executes buys and sells for authenticated users and serves
// non-binding quotes. All state transitions go through the ledger; the
// service adds profile bootstrap, the display price cache, and event
// publication around it.
type TradeService struct {
	ledger    domain.Ledger
	markets   domain.MarketStore
	profiles  domain.ProfileStore
	positions domain.PositionStore
	prices    domain.PriceCache
	bus       domain.SignalBus
	logger    *slog.Logger
}

// NewTradeService creates a TradeService with all required dependencies.
func NewTradeService(
	ledger domain.Ledger,
	markets domain.MarketStore,
	profiles domain.ProfileStore,
	positions domain.PositionStore,
	prices domain.PriceCache,
	bus domain.SignalBus,
	logger *slog.Logger,
) *TradeService {
	return &TradeService{
		ledger:    ledger,
		markets:   markets,
		profiles:  profiles,
		positions: positions,
		prices:    prices,
		bus:       bus,
		logger:    logger.With(slog.String("component", "trade_service")),
	}
}

// Buy invests amountTP of the user's balance into the given side. The
// returned result reflects the committed state.
func (s *TradeService) Buy(ctx context.Context, who domain.Identity, marketID string, side domain.Outcome, amountTP float64) (domain.TradeResult, error) {
	if !side.Valid() {
		return domain.TradeResult{}, fmt.Errorf("trade_service: %w: unknown side %q", domain.ErrInvalidAmount, side)
	}
	if _, err := s.profiles.Ensure(ctx, who.UserID, who.Username); err != nil {
		return domain.TradeResult{}, fmt.Errorf("trade_service: ensure profile: %w", err)
	}

	res, err := s.ledger.Buy(ctx, domain.TradeRequest{
		MarketID: marketID,
		UserID:   who.UserID,
		Side:     side,
		AmountTP: amountTP,
	})
	if err != nil {
		return domain.TradeResult{}, fmt.Errorf("trade_service: buy: %w", err)
	}

	s.afterTrade(ctx, who.UserID, marketID, res)
	return res, nil
}

// Sell liquidates shares of the given side back into the pool. The returned
// result reflects the committed state.
func (s *TradeService) Sell(ctx context.Context, who domain.Identity, marketID string, side domain.Outcome, shares int64) (domain.TradeResult, error) {
	if !side.Valid() {
		return domain.TradeResult{}, fmt.Errorf("trade_service: %w: unknown side %q", domain.ErrInvalidAmount, side)
	}
	if _, err := s.profiles.Ensure(ctx, who.UserID, who.Username); err != nil {
		return domain.TradeResult{}, fmt.Errorf("trade_service: ensure profile: %w", err)
	}

	res, err := s.ledger.Sell(ctx, domain.TradeRequest{
		MarketID: marketID,
		UserID:   who.UserID,
		Side:     side,
		Shares:   shares,
	})
	if err != nil {
		return domain.TradeResult{}, fmt.Errorf("trade_service: sell: %w", err)
	}

	s.afterTrade(ctx, who.UserID, marketID, res)
	return res, nil
}

// QuoteBuy previews a buy against the market's current reserves without
// committing anything. The preview can go stale the moment another trade
// lands.
func (s *TradeService) QuoteBuy(ctx context.Context, marketID string, side domain.Outcome, amountTP float64) (domain.BuyQuote, error) {
	if !side.Valid() {
		return domain.BuyQuote{}, fmt.Errorf("trade_service: %w: unknown side %q", domain.ErrInvalidAmount, side)
	}
	m, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return domain.BuyQuote{}, fmt.Errorf("trade_service: quote market %s: %w", marketID, err)
	}
	q, err := domain.QuoteBuy(m, side, amountTP)
	if err != nil {
		return domain.BuyQuote{}, fmt.Errorf("trade_service: quote buy: %w", err)
	}
	return q, nil
}

// QuoteSell previews a sell for the given user, bounded by their current
// holdings. Users with no position hold zero shares.
func (s *TradeService) QuoteSell(ctx context.Context, userID, marketID string, side domain.Outcome, shares int64) (domain.SellQuote, error) {
	if !side.Valid() {
		return domain.SellQuote{}, fmt.Errorf("trade_service: %w: unknown side %q", domain.ErrInvalidAmount, side)
	}
	m, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return domain.SellQuote{}, fmt.Errorf("trade_service: quote market %s: %w", marketID, err)
	}

	var held int64
	pos, err := s.positions.Get(ctx, userID, marketID)
	switch {
	case err == nil:
		held = pos.Shares(side)
	case errors.Is(err, domain.ErrNotFound):
		held = 0
	default:
		return domain.SellQuote{}, fmt.Errorf("trade_service: quote position: %w", err)
	}

	q, err := domain.QuoteSell(m, side, shares, held)
	if err != nil {
		return domain.SellQuote{}, fmt.Errorf("trade_service: quote sell: %w", err)
	}
	return q, nil
}

// afterTrade refreshes the display price cache and publishes the trade
// event. Both are best effort; the trade has already committed.
func (s *TradeService) afterTrade(ctx context.Context, userID, marketID string, res domain.TradeResult) {
	now := time.Now().UTC()

	if err := s.prices.SetPrice(ctx, marketID, res.PriceYes, now); err != nil {
		s.logger.WarnContext(ctx, "price cache update failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}

	evt, _ := json.Marshal(map[string]any{
		"event":          "trade_committed",
		"market_id":      marketID,
		"user_id":        userID,
		"type":           string(res.Type),
		"shares_granted": res.SharesGranted,
		"tp_granted":     res.TPGranted,
		"price_yes":      res.PriceYes,
		"ts":             now.Format(time.RFC3339Nano),
	})
	if err := s.bus.Publish(ctx, tradesChannel, evt); err != nil {
		s.logger.WarnContext(ctx, "trade event publish failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
}
