package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tahminpazari/marketd/internal/domain"
	"github.com/tahminpazari/marketd/internal/notify"
)

const (
	// MinInitialLiquidity is the smallest TP amount a market may launch with.
	MinInitialLiquidity float64 = 100

	// DefaultHistoryPoints bounds the price-history window served to clients.
	DefaultHistoryPoints = 50

	defaultListLimit = 50
	maxListLimit     = 200
)

// MarketService owns market lifecycle reads and creation. Trading against a
// market goes through TradeService; resolution through ResolutionService.
type MarketService struct {
	markets  domain.MarketStore
	history  domain.PriceHistoryStore
	prices   domain.PriceCache
	notifier Announcer
	logger   *slog.Logger
}

// NewMarketService creates a MarketService. prices and notifier may be nil;
// display prices then always derive from reserves and creation goes
// unannounced.
func NewMarketService(
	markets domain.MarketStore,
	history domain.PriceHistoryStore,
	prices domain.PriceCache,
	notifier Announcer,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		markets:  markets,
		history:  history,
		prices:   prices,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "market_service")),
	}
}

// CreateMarketInput carries the operator-supplied parameters for a new
// market.
type CreateMarketInput struct {
	Question    string
	Description string
	ImageURL    string
	EndDate     time.Time
	// InitialLiquidity is the total TP seeding the pools, split evenly
	// between YES and NO so the market opens at 0.50.
	InitialLiquidity float64
}

// Create launches a new market with evenly split reserves.
func (s *MarketService) Create(ctx context.Context, in CreateMarketInput) (domain.Market, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return domain.Market{}, fmt.Errorf("market_service: %w: question must not be empty", domain.ErrInvalidAmount)
	}
	if in.InitialLiquidity < MinInitialLiquidity {
		return domain.Market{}, fmt.Errorf("market_service: %w: initial liquidity must be at least %.0f TP", domain.ErrInvalidAmount, MinInitialLiquidity)
	}

	now := time.Now().UTC()
	half := in.InitialLiquidity / 2

	m := domain.Market{
		ID:                 uuid.NewString(),
		Question:           question,
		Description:        strings.TrimSpace(in.Description),
		ImageURL:           strings.TrimSpace(in.ImageURL),
		PoolYes:            half,
		PoolNo:             half,
		LiquidityParameter: half * half,
		IsResolved:         false,
		EndDate:            in.EndDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.markets.Create(ctx, m); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: create market: %w", err)
	}

	s.logger.InfoContext(ctx, "market created",
		slog.String("market_id", m.ID),
		slog.String("question", m.Question),
		slog.Float64("initial_liquidity", in.InitialLiquidity),
	)

	if s.notifier != nil {
		msg := fmt.Sprintf("New market %q opened at 0.50 with %.0f TP liquidity.", m.Question, in.InitialLiquidity)
		if err := s.notifier.Announce(ctx, notify.EventMarketCreated, "Market opened", msg); err != nil {
			s.logger.WarnContext(ctx, "market creation announcement failed",
				slog.String("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return m, nil
}

// DisplayPrice returns the implied YES price to show for a market. For
// unresolved markets it prefers the snapshot cached on the last trade;
// a cache miss or error falls back to the live reserves. Resolved markets
// always price from their frozen reserves since the cache stops updating.
func (s *MarketService) DisplayPrice(ctx context.Context, m domain.Market) float64 {
	if s.prices == nil || m.IsResolved {
		return domain.PriceYes(m)
	}
	priceYes, _, err := s.prices.GetPrice(ctx, m.ID)
	if err != nil {
		return domain.PriceYes(m)
	}
	return priceYes
}

// Get returns a single market by ID.
func (s *MarketService) Get(ctx context.Context, id string) (domain.Market, error) {
	m, err := s.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get market %s: %w", id, err)
	}
	return m, nil
}

// List returns markets newest first, plus the total count for pagination.
func (s *MarketService) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, int64, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	markets, err := s.markets.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("market_service: list markets: %w", err)
	}
	total, err := s.markets.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("market_service: count markets: %w", err)
	}
	return markets, total, nil
}

// History returns the most recent price points for a market, ascending by
// time, capped at DefaultHistoryPoints.
func (s *MarketService) History(ctx context.Context, marketID string) ([]domain.PricePoint, error) {
	if _, err := s.markets.GetByID(ctx, marketID); err != nil {
		return nil, fmt.Errorf("market_service: market %s: %w", marketID, err)
	}
	points, err := s.history.ListByMarket(ctx, marketID, DefaultHistoryPoints)
	if err != nil {
		return nil, fmt.Errorf("market_service: market %s history: %w", marketID, err)
	}
	return points, nil
}
