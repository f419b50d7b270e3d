package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tahminpazari/marketd/internal/domain"
	"github.com/tahminpazari/marketd/internal/service"
)

// MarketService defines the methods the market handler requires from the
// service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type MarketService interface {
	Create(ctx context.Context, in service.CreateMarketInput) (domain.Market, error)
	Get(ctx context.Context, id string) (domain.Market, error)
	List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, int64, error)
	History(ctx context.Context, marketID string) ([]domain.PricePoint, error)
	DisplayPrice(ctx context.Context, m domain.Market) float64
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logger,
	}
}

// marketView is the JSON representation of a market, with the implied
// prices precomputed for clients.
type marketView struct {
	ID          string  `json:"id"`
	Question    string  `json:"question"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	PoolYes     float64 `json:"pool_yes"`
	PoolNo      float64 `json:"pool_no"`
	PriceYes    float64 `json:"price_yes"`
	PriceNo     float64 `json:"price_no"`
	IsResolved  bool    `json:"is_resolved"`
	Outcome     *string `json:"outcome,omitempty"`
	EndDate     string  `json:"end_date,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toMarketView(m domain.Market, priceYes float64) marketView {
	v := marketView{
		ID:          m.ID,
		Question:    m.Question,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		PoolYes:     m.PoolYes,
		PoolNo:      m.PoolNo,
		PriceYes:    priceYes,
		PriceNo:     1 - priceYes,
		IsResolved:  m.IsResolved,
		CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.Outcome != nil {
		s := string(*m.Outcome)
		v.Outcome = &s
	}
	if !m.EndDate.IsZero() {
		v.EndDate = m.EndDate.UTC().Format(time.RFC3339)
	}
	return v
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []marketView `json:"markets"`
	Total   int64        `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

// ListMarkets returns markets newest first with pagination.
// GET /api/markets?limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	markets, total, err := h.markets.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	views := make([]marketView, 0, len(markets))
	for _, m := range markets {
		views = append(views, toMarketView(m, h.markets.DisplayPrice(r.Context(), m)))
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: views,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	m, err := h.markets.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMarketView(m, h.markets.DisplayPrice(r.Context(), m)))
}

// pricePointView is the JSON representation of one price-history sample.
type pricePointView struct {
	PriceYes  float64 `json:"price_yes"`
	CreatedAt string  `json:"created_at"`
}

// History returns the recent price history of a market, oldest first.
// GET /api/markets/{id}/history
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	points, err := h.markets.History(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]pricePointView, 0, len(points))
	for _, p := range points {
		views = append(views, pricePointView{
			PriceYes:  p.PriceYes,
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"points": views})
}

// createMarketRequest is the POST body for launching a market.
type createMarketRequest struct {
	Question         string  `json:"question"`
	Description      string  `json:"description"`
	ImageURL         string  `json:"image_url"`
	EndDate          string  `json:"end_date"` // RFC3339, optional
	InitialLiquidity float64 `json:"initial_liquidity"`
}

// CreateMarket launches a new market. Operator only.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var endDate time.Time
	if req.EndDate != "" {
		var err error
		endDate, err = time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be RFC3339")
			return
		}
	}

	m, err := h.markets.Create(r.Context(), service.CreateMarketInput{
		Question:         req.Question,
		Description:      req.Description,
		ImageURL:         req.ImageURL,
		EndDate:          endDate,
		InitialLiquidity: req.InitialLiquidity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMarketView(m, h.markets.DisplayPrice(r.Context(), m)))
}
