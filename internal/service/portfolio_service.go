package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tahminpazari/marketd/internal/domain"
)

// txPageSize is the page size used when walking a user's transaction log.
const txPageSize = 500

// OpenHolding is a non-empty position joined with its market for display.
type OpenHolding struct {
	Market   domain.Market
	Position domain.Position
	PriceYes float64
	PriceNo  float64
}

// Portfolio is the authenticated user's full account view.
type Portfolio struct {
	Profile  domain.Profile
	Holdings []OpenHolding
	// PnL holds realized per-market results for markets that have resolved
	// or where the user already sold for earnings.
	PnL []domain.MarketPnL
}

// PortfolioService assembles the per-user account view: profile, open
// holdings, and realized PnL recomputed from the transaction log.
type PortfolioService struct {
	profiles  domain.ProfileStore
	positions domain.PositionStore
	markets   domain.MarketStore
	txs       domain.TransactionStore
	logger    *slog.Logger
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(
	profiles domain.ProfileStore,
	positions domain.PositionStore,
	markets domain.MarketStore,
	txs domain.TransactionStore,
	logger *slog.Logger,
) *PortfolioService {
	return &PortfolioService{
		profiles:  profiles,
		positions: positions,
		markets:   markets,
		txs:       txs,
		logger:    logger.With(slog.String("component", "portfolio_service")),
	}
}

// Get returns the portfolio for the authenticated user, creating the
// profile with the starting balance on first touch.
func (s *PortfolioService) Get(ctx context.Context, who domain.Identity) (Portfolio, error) {
	profile, err := s.profiles.Ensure(ctx, who.UserID, who.Username)
	if err != nil {
		return Portfolio{}, fmt.Errorf("portfolio_service: ensure profile: %w", err)
	}

	positions, err := s.positions.ListByUser(ctx, who.UserID)
	if err != nil {
		return Portfolio{}, fmt.Errorf("portfolio_service: list positions: %w", err)
	}

	txs, err := s.allTransactions(ctx, who.UserID)
	if err != nil {
		return Portfolio{}, fmt.Errorf("portfolio_service: list transactions: %w", err)
	}

	marketsByID, err := s.fetchMarkets(ctx, positions, txs)
	if err != nil {
		return Portfolio{}, err
	}

	holdings := make([]OpenHolding, 0, len(positions))
	for _, pos := range positions {
		if pos.Empty() {
			continue
		}
		m, ok := marketsByID[pos.MarketID]
		if !ok {
			// Position outlived its market; skip rather than fail the view.
			s.logger.WarnContext(ctx, "position references missing market",
				slog.String("user_id", pos.UserID),
				slog.String("market_id", pos.MarketID),
			)
			continue
		}
		if m.IsResolved {
			// Losing shares survive settlement with their count intact; they
			// are history, not open holdings.
			continue
		}
		priceYes := domain.PriceYes(m)
		holdings = append(holdings, OpenHolding{
			Market:   m,
			Position: pos,
			PriceYes: priceYes,
			PriceNo:  1 - priceYes,
		})
	}

	pnl := domain.ClosedPnL(domain.AccumulatePnL(txs, marketsByID))

	return Portfolio{
		Profile:  profile,
		Holdings: holdings,
		PnL:      pnl,
	}, nil
}

// allTransactions walks the user's transaction log page by page.
func (s *PortfolioService) allTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	var all []domain.Transaction
	for offset := 0; ; offset += txPageSize {
		page, err := s.txs.ListByUser(ctx, userID, domain.ListOpts{Limit: txPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < txPageSize {
			return all, nil
		}
	}
}

// fetchMarkets loads every market referenced by the user's positions or
// transactions, keyed by ID. Markets deleted since are skipped.
func (s *PortfolioService) fetchMarkets(ctx context.Context, positions []domain.Position, txs []domain.Transaction) (map[string]domain.Market, error) {
	ids := make(map[string]bool)
	for _, p := range positions {
		ids[p.MarketID] = true
	}
	for _, tx := range txs {
		ids[tx.MarketID] = true
	}

	out := make(map[string]domain.Market, len(ids))
	for id := range ids {
		m, err := s.markets.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("portfolio_service: get market %s: %w", id, err)
		}
		out[id] = m
	}
	return out, nil
}
