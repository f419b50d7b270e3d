package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tahminpazari/marketd/internal/domain"
	"github.com/tahminpazari/marketd/internal/server/middleware"
	"github.com/tahminpazari/marketd/internal/service"
)

// PortfolioService defines the methods the portfolio handler requires.
type PortfolioService interface {
	Get(ctx context.Context, who domain.Identity) (service.Portfolio, error)
}

// PortfolioHandler serves the authenticated account view.
type PortfolioHandler struct {
	portfolios PortfolioService
	logger     *slog.Logger
}

// NewPortfolioHandler creates a PortfolioHandler.
func NewPortfolioHandler(portfolios PortfolioService, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios: portfolios,
		logger:     logger,
	}
}

type holdingView struct {
	Market    marketView `json:"market"`
	SharesYes int64      `json:"shares_yes"`
	SharesNo  int64      `json:"shares_no"`
	UpdatedAt string     `json:"updated_at"`
}

type pnlView struct {
	MarketID   string  `json:"market_id"`
	Question   string  `json:"question,omitempty"`
	IsResolved bool    `json:"is_resolved"`
	Outcome    *string `json:"outcome,omitempty"`
	Spent      float64 `json:"spent"`
	Earned     float64 `json:"earned"`
	Net        float64 `json:"net"`
}

type portfolioResponse struct {
	UserID   string        `json:"user_id"`
	Username string        `json:"username"`
	Balance  float64       `json:"balance"`
	Holdings []holdingView `json:"holdings"`
	PnL      []pnlView     `json:"pnl"`
}

// GetPortfolio returns the caller's balance, open holdings, and realized
// per-market results.
// GET /api/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	p, err := h.portfolios.Get(r.Context(), who)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: portfolio failed",
			slog.String("user_id", who.UserID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	holdings := make([]holdingView, 0, len(p.Holdings))
	for _, hld := range p.Holdings {
		holdings = append(holdings, holdingView{
			Market:    toMarketView(hld.Market, hld.PriceYes),
			SharesYes: hld.Position.SharesYes,
			SharesNo:  hld.Position.SharesNo,
			UpdatedAt: hld.Position.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	pnl := make([]pnlView, 0, len(p.PnL))
	for _, e := range p.PnL {
		v := pnlView{
			MarketID:   e.MarketID,
			Question:   e.Question,
			IsResolved: e.IsResolved,
			Spent:      e.Spent,
			Earned:     e.Earned,
			Net:        e.Net,
		}
		if e.Outcome != nil {
			s := string(*e.Outcome)
			v.Outcome = &s
		}
		pnl = append(pnl, v)
	}

	writeJSON(w, http.StatusOK, portfolioResponse{
		UserID:   p.Profile.ID,
		Username: p.Profile.Username,
		Balance:  p.Profile.Balance,
		Holdings: holdings,
		PnL:      pnl,
	})
}
