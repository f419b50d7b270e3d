// Package server assembles the HTTP API: routing, middleware, and the
// server lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tahminpazari/marketd/internal/domain"
	"github.com/tahminpazari/marketd/internal/server/handler"
	"github.com/tahminpazari/marketd/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	AdminToken  string
	// TradeRateLimit caps buy/sell/quote requests per caller per minute.
	// Zero disables rate limiting.
	TradeRateLimit int
}

// Handlers aggregates all HTTP handlers the server registers.
type Handlers struct {
	Health      *handler.HealthHandler
	Markets     *handler.MarketHandler
	Trades      *handler.TradeHandler
	Portfolio   *handler.PortfolioHandler
	Leaderboard *handler.LeaderboardHandler
	Admin       *handler.AdminHandler
}

// Server is the HTTP API server for the market platform.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes registered. Identity resolution
// applies to every route; trade routes additionally sit behind the rate
// limiter and admin routes behind the admin token.
func New(cfg Config, handlers Handlers, identity domain.IdentityProvider, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	adminOnly := middleware.AdminAuth(cfg.AdminToken)
	throttled := middleware.RateLimit(limiter, cfg.TradeRateLimit, time.Minute)

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Market reads.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("GET /api/markets/{id}/history", handlers.Markets.History)

	// Trading.
	mux.Handle("POST /api/markets/{id}/buy", throttled(http.HandlerFunc(handlers.Trades.Buy)))
	mux.Handle("POST /api/markets/{id}/sell", throttled(http.HandlerFunc(handlers.Trades.Sell)))
	mux.Handle("POST /api/markets/{id}/quote", throttled(http.HandlerFunc(handlers.Trades.Quote)))

	// Account views.
	mux.HandleFunc("GET /api/portfolio", handlers.Portfolio.GetPortfolio)
	mux.HandleFunc("GET /api/leaderboard", handlers.Leaderboard.GetLeaderboard)

	// Operator endpoints.
	mux.Handle("POST /api/markets", adminOnly(http.HandlerFunc(handlers.Markets.CreateMarket)))
	mux.Handle("POST /api/markets/{id}/resolve", adminOnly(http.HandlerFunc(handlers.Admin.ResolveMarket)))
	mux.Handle("POST /api/admin/reset", adminOnly(http.HandlerFunc(handlers.Admin.ResetPlatform)))

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Identity(identity, logger)(h)
	h = middleware.Logging(logger)(h)
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// corsMiddleware returns middleware that sets CORS headers for the allowed
// origins. If no origins are specified, all origins are allowed.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Token")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			// Handle preflight requests.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
