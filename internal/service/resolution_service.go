package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tahminpazari/marketd/internal/domain"
	"github.com/tahminpazari/marketd/internal/notify"
)

// settlementsChannel is the bus channel carrying resolution and reset events.
const settlementsChannel = "settlements"

// Announcer dispatches operator announcements. Satisfied by notify.Notifier.
type Announcer interface {
	Announce(ctx context.Context, event notify.Event, title, message string) error
}

// ResolutionService finalizes markets: it settles payouts through the
// ledger, then announces the outcome and archives the market's transaction
// log to cold storage.
type ResolutionService struct {
	ledger   domain.Ledger
	markets  domain.MarketStore
	bus      domain.SignalBus
	notifier Announcer
	archiver domain.Archiver // nil when archiving is not configured
	logger   *slog.Logger
}

// NewResolutionService creates a ResolutionService. archiver may be nil.
func NewResolutionService(
	ledger domain.Ledger,
	markets domain.MarketStore,
	bus domain.SignalBus,
	notifier Announcer,
	archiver domain.Archiver,
	logger *slog.Logger,
) *ResolutionService {
	return &ResolutionService{
		ledger:   ledger,
		markets:  markets,
		bus:      bus,
		notifier: notifier,
		archiver: archiver,
		logger:   logger.With(slog.String("component", "resolution_service")),
	}
}

// ResolveResult reports a committed resolution.
type ResolveResult struct {
	MarketID    string
	Outcome     domain.Outcome
	TotalPayout float64
}

// Resolve settles the market to the given outcome, paying one TP per
// winning share. The settlement itself is atomic; the announcement and
// archive steps after it are best effort.
func (s *ResolutionService) Resolve(ctx context.Context, marketID string, outcome domain.Outcome) (ResolveResult, error) {
	if !outcome.Valid() {
		return ResolveResult{}, fmt.Errorf("resolution_service: %w: unknown outcome %q", domain.ErrInvalidAmount, outcome)
	}

	total, err := s.ledger.Resolve(ctx, marketID, outcome)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("resolution_service: resolve market %s: %w", marketID, err)
	}

	s.logger.InfoContext(ctx, "market resolved",
		slog.String("market_id", marketID),
		slog.String("outcome", string(outcome)),
		slog.Float64("total_payout", total),
	)

	evt, _ := json.Marshal(map[string]any{
		"event":        "market_resolved",
		"market_id":    marketID,
		"outcome":      string(outcome),
		"total_payout": total,
		"ts":           time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err := s.bus.Publish(ctx, settlementsChannel, evt); err != nil {
		s.logger.WarnContext(ctx, "resolution event publish failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}

	s.announce(ctx, marketID, outcome, total)
	s.archive(ctx, marketID)

	return ResolveResult{MarketID: marketID, Outcome: outcome, TotalPayout: total}, nil
}

func (s *ResolutionService) announce(ctx context.Context, marketID string, outcome domain.Outcome, total float64) {
	if s.notifier == nil {
		return
	}

	title := "Market resolved"
	msg := fmt.Sprintf("Market %s resolved %s, %.0f TP paid out.", marketID, outcome, total)
	if m, err := s.markets.GetByID(ctx, marketID); err == nil {
		msg = fmt.Sprintf("%q resolved %s, %.0f TP paid out.", m.Question, outcome, total)
	}

	if err := s.notifier.Announce(ctx, notify.EventMarketResolved, title, msg); err != nil {
		s.logger.WarnContext(ctx, "resolution announcement failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ResolutionService) archive(ctx context.Context, marketID string) {
	if s.archiver == nil {
		return
	}

	n, err := s.archiver.ArchiveMarket(ctx, marketID)
	if err != nil {
		s.logger.WarnContext(ctx, "market archive failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.InfoContext(ctx, "market archived",
		slog.String("market_id", marketID),
		slog.Int64("records", n),
	)
}
