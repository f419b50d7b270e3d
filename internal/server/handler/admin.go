package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tahminpazari/marketd/internal/domain"
	"github.com/tahminpazari/marketd/internal/service"
)

// ResolutionService defines the resolution method the admin handler
// requires.
type ResolutionService interface {
	Resolve(ctx context.Context, marketID string, outcome domain.Outcome) (service.ResolveResult, error)
}

// AdminService defines the maintenance methods the admin handler requires.
type AdminService interface {
	Reset(ctx context.Context) error
}

// AdminHandler serves operator-only endpoints. Routes using it sit behind
// the admin-token middleware.
type AdminHandler struct {
	resolutions ResolutionService
	admin       AdminService
	logger      *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(resolutions ResolutionService, admin AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		resolutions: resolutions,
		admin:       admin,
		logger:      logger,
	}
}

// resolveRequest is the POST body for a resolution.
type resolveRequest struct {
	Outcome string `json:"outcome"`
}

// ResolveMarket finalizes a market to the given outcome and pays winners.
// POST /api/markets/{id}/resolve
func (h *AdminHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	marketID := pathParam(r, "id")
	if marketID == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.resolutions.Resolve(r.Context(), marketID, parseSide(req.Outcome))
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: resolve failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"market_id":    res.MarketID,
		"outcome":      string(res.Outcome),
		"total_payout": res.TotalPayout,
	})
}

// ResetPlatform wipes all market state and restores every balance.
// POST /api/admin/reset
func (h *AdminHandler) ResetPlatform(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.Reset(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: reset failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "reset",
		"balance": domain.StartingBalance,
	})
}
