package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tahminpazari/marketd/internal/server/middleware"
	"github.com/tahminpazari/marketd/internal/service"
)

// LeaderboardService defines the methods the leaderboard handler requires.
type LeaderboardService interface {
	Get(ctx context.Context, userID string) (service.Leaderboard, error)
}

// LeaderboardHandler serves the public balance ranking.
type LeaderboardHandler struct {
	leaderboard LeaderboardService
	logger      *slog.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(leaderboard LeaderboardService, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		logger:      logger,
	}
}

type leaderboardEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
	IsMe     bool    `json:"is_me,omitempty"`
}

type leaderboardResponse struct {
	Entries []leaderboardEntry `json:"entries"`
	MyRank  int                `json:"my_rank,omitempty"`
}

// GetLeaderboard returns the top profiles by balance. Usernames are masked
// for everyone except the caller. Authentication is optional; when present
// the caller's own rank is included.
// GET /api/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	var callerID string
	if who, ok := middleware.IdentityFrom(r.Context()); ok {
		callerID = who.UserID
	}

	lb, err := h.leaderboard.Get(r.Context(), callerID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: leaderboard failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	entries := make([]leaderboardEntry, 0, len(lb.Entries))
	for _, e := range lb.Entries {
		entry := leaderboardEntry{
			Rank:    e.Rank,
			Balance: e.Balance,
		}
		if callerID != "" && e.ID == callerID {
			entry.Username = e.Username
			entry.IsMe = true
		} else {
			entry.Username = maskUsername(e.Username)
		}
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{
		Entries: entries,
		MyRank:  lb.MyRank,
	})
}
