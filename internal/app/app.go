// Package app provides the top-level application lifecycle: it wires the
// stores, caches, blob storage, services, and notifications together and
// runs the HTTP API until the context is cancelled.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tahminpazari/marketd/internal/config"
	"github.com/tahminpazari/marketd/internal/server"
	"github.com/tahminpazari/marketd/internal/server/handler"
	"github.com/tahminpazari/marketd/internal/service"
)

// shutdownGrace bounds how long in-flight requests may run after the
// context is cancelled.
const shutdownGrace = 10 * time.Second

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions that are called in reverse order on
// shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the HTTP server and background
// consumers, and blocks until the context is cancelled or a component
// fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Int("port", a.cfg.Server.Port),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	// --- Services ---
	markets := service.NewMarketService(deps.MarketStore, deps.PriceHistory, deps.PriceCache, deps.Notifier, a.logger)
	trades := service.NewTradeService(deps.Ledger, deps.MarketStore, deps.ProfileStore, deps.PositionStore, deps.PriceCache, deps.SignalBus, a.logger)
	resolutions := service.NewResolutionService(deps.Ledger, deps.MarketStore, deps.SignalBus, deps.Notifier, deps.Archiver, a.logger)
	portfolios := service.NewPortfolioService(deps.ProfileStore, deps.PositionStore, deps.MarketStore, deps.TransactionStore, a.logger)
	leaderboard := service.NewLeaderboardService(deps.ProfileStore, a.logger)
	admin := service.NewAdminService(deps.Ledger, deps.SignalBus, deps.Notifier, a.logger)

	// --- HTTP server ---
	srv := server.New(
		server.Config{
			Port:           a.cfg.Server.Port,
			CORSOrigins:    a.cfg.Server.CORSOrigins,
			AdminToken:     a.cfg.Admin.Token,
			TradeRateLimit: a.cfg.Server.RateLimitPerMinute,
		},
		server.Handlers{
			Health:      handler.NewHealthHandler(a.logger),
			Markets:     handler.NewMarketHandler(markets, a.logger),
			Trades:      handler.NewTradeHandler(trades, a.logger),
			Portfolio:   handler.NewPortfolioHandler(portfolios, a.logger),
			Leaderboard: handler.NewLeaderboardHandler(leaderboard, a.logger),
			Admin:       handler.NewAdminHandler(resolutions, admin, a.logger),
		},
		deps.Identity,
		deps.RateLimiter,
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return a.consumeSettlements(ctx, deps)
	})

	return g.Wait()
}

// consumeSettlements tails the settlements channel and mirrors resolution
// and reset events into the application log. Failing to subscribe is not
// fatal: the bus is an observability surface, not a correctness one.
func (a *App) consumeSettlements(ctx context.Context, deps *Dependencies) error {
	ch, err := deps.SignalBus.Subscribe(ctx, "settlements")
	if err != nil {
		a.logger.WarnContext(ctx, "settlements subscription failed",
			slog.String("error", err.Error()),
		)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-ch:
			if !ok {
				return nil
			}
			var evt map[string]any
			if err := json.Unmarshal(payload, &evt); err != nil {
				a.logger.WarnContext(ctx, "malformed settlement event",
					slog.String("error", err.Error()),
				)
				continue
			}
			a.logger.InfoContext(ctx, "settlement event",
				slog.Any("event", evt),
			)
		}
	}
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
