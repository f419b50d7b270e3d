package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tahminpazari/marketd/internal/domain"
	"github.com/tahminpazari/marketd/internal/server/middleware"
)

// TradeService defines the methods the trade handler requires from the
// service layer.
type TradeService interface {
	Buy(ctx context.Context, who domain.Identity, marketID string, side domain.Outcome, amountTP float64) (domain.TradeResult, error)
	Sell(ctx context.Context, who domain.Identity, marketID string, side domain.Outcome, shares int64) (domain.TradeResult, error)
	QuoteBuy(ctx context.Context, marketID string, side domain.Outcome, amountTP float64) (domain.BuyQuote, error)
	QuoteSell(ctx context.Context, userID, marketID string, side domain.Outcome, shares int64) (domain.SellQuote, error)
}

// TradeHandler serves buy, sell, and quote endpoints.
type TradeHandler struct {
	trades TradeService
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler with the given service and logger.
func NewTradeHandler(trades TradeService, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{
		trades: trades,
		logger: logger,
	}
}

// tradeResultView is the JSON representation of a committed trade.
type tradeResultView struct {
	Type          string  `json:"type"`
	SharesGranted int64   `json:"shares_granted"`
	TPGranted     float64 `json:"tp_granted"`
	Fee           float64 `json:"fee"`
	PriceYes      float64 `json:"price_yes"`
	NewBalance    float64 `json:"new_balance"`
}

func toTradeResultView(res domain.TradeResult) tradeResultView {
	return tradeResultView{
		Type:          string(res.Type),
		SharesGranted: res.SharesGranted,
		TPGranted:     res.TPGranted,
		Fee:           res.Fee,
		PriceYes:      res.PriceYes,
		NewBalance:    res.NewBalance,
	}
}

// buyRequest is the POST body for a buy.
type buyRequest struct {
	Side     string  `json:"side"`
	AmountTP float64 `json:"amount_tp"`
}

// Buy invests part of the caller's balance into one side of a market.
// POST /api/markets/{id}/buy
func (h *TradeHandler) Buy(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	marketID := pathParam(r, "id")
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.trades.Buy(r.Context(), who, marketID, parseSide(req.Side), req.AmountTP)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: buy failed",
			slog.String("market_id", marketID),
			slog.String("user_id", who.UserID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTradeResultView(res))
}

// sellRequest is the POST body for a sell.
type sellRequest struct {
	Side   string `json:"side"`
	Shares int64  `json:"shares"`
}

// Sell liquidates shares back into the pool.
// POST /api/markets/{id}/sell
func (h *TradeHandler) Sell(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	marketID := pathParam(r, "id")
	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.trades.Sell(r.Context(), who, marketID, parseSide(req.Side), req.Shares)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: sell failed",
			slog.String("market_id", marketID),
			slog.String("user_id", who.UserID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTradeResultView(res))
}

// quoteRequest is the POST body for a quote preview. Kind selects between
// "buy" (amount_tp) and "sell" (shares).
type quoteRequest struct {
	Kind     string  `json:"kind"`
	Side     string  `json:"side"`
	AmountTP float64 `json:"amount_tp"`
	Shares   int64   `json:"shares"`
}

// Quote previews a trade without committing it. Sell quotes require
// authentication since they are bounded by the caller's holdings.
// POST /api/markets/{id}/quote
func (h *TradeHandler) Quote(w http.ResponseWriter, r *http.Request) {
	marketID := pathParam(r, "id")
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch strings.ToLower(req.Kind) {
	case "buy":
		q, err := h.trades.QuoteBuy(r.Context(), marketID, parseSide(req.Side), req.AmountTP)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"side":       string(q.Side),
			"amount_tp":  q.AmountTP,
			"fee":        q.Fee,
			"net_invest": q.NetInvest,
			"new_price":  q.NewPrice,
			"shares":     q.Shares,
		})
	case "sell":
		who, ok := middleware.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		q, err := h.trades.QuoteSell(r.Context(), who.UserID, marketID, parseSide(req.Side), req.Shares)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"side":         string(q.Side),
			"shares":       q.Shares,
			"price":        q.Price,
			"gross_payout": q.GrossPayout,
			"net_payout":   q.NetPayout,
		})
	default:
		writeError(w, http.StatusBadRequest, `kind must be "buy" or "sell"`)
	}
}

// parseSide normalizes the wire side value; validation happens in the
// service layer.
func parseSide(s string) domain.Outcome {
	return domain.Outcome(strings.ToUpper(strings.TrimSpace(s)))
}
