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

// AdminService performs operator-only platform maintenance.
type AdminService struct {
	ledger   domain.Ledger
	bus      domain.SignalBus
	notifier Announcer
	logger   *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(ledger domain.Ledger, bus domain.SignalBus, notifier Announcer, logger *slog.Logger) *AdminService {
	return &AdminService{
		ledger:   ledger,
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "admin_service")),
	}
}

// Reset wipes all markets, positions, transactions, and price history, and
// restores every profile to the starting balance. Profiles themselves
// survive.
func (s *AdminService) Reset(ctx context.Context) error {
	if err := s.ledger.Reset(ctx); err != nil {
		return fmt.Errorf("admin_service: reset: %w", err)
	}

	s.logger.InfoContext(ctx, "platform reset",
		slog.Float64("balance", domain.StartingBalance),
	)

	evt, _ := json.Marshal(map[string]any{
		"event": "platform_reset",
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err := s.bus.Publish(ctx, settlementsChannel, evt); err != nil {
		s.logger.WarnContext(ctx, "reset event publish failed",
			slog.String("error", err.Error()),
		)
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("All markets cleared; every balance restored to %.0f TP.", domain.StartingBalance)
		if err := s.notifier.Announce(ctx, notify.EventPlatformReset, "Platform reset", msg); err != nil {
			s.logger.WarnContext(ctx, "reset announcement failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}
