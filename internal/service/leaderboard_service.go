package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tahminpazari/marketd/internal/domain"
)

// LeaderboardSize is the number of profiles the leaderboard exposes.
const LeaderboardSize = 100

// Leaderboard is the ranked top slice plus the caller's own standing.
type Leaderboard struct {
	Entries []domain.RankedProfile
	// MyRank is the caller's 1-based rank when they appear in the top
	// slice, 0 otherwise.
	MyRank int
}

// LeaderboardService serves the balance ranking.
type LeaderboardService struct {
	profiles domain.ProfileStore
	logger   *slog.Logger
}

// NewLeaderboardService creates a LeaderboardService.
func NewLeaderboardService(profiles domain.ProfileStore, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		profiles: profiles,
		logger:   logger.With(slog.String("component", "leaderboard_service")),
	}
}

// Get returns the top profiles by balance with deterministic tiebreaks,
// and the caller's rank within that slice. userID may be empty for
// anonymous callers.
func (s *LeaderboardService) Get(ctx context.Context, userID string) (Leaderboard, error) {
	top, err := s.profiles.ListTop(ctx, LeaderboardSize)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("leaderboard_service: list top: %w", err)
	}

	// The store already orders correctly; re-ranking keeps the tiebreak
	// independent of fetch order.
	ranked := domain.RankProfiles(top)

	lb := Leaderboard{Entries: ranked}
	if userID != "" {
		for _, r := range ranked {
			if r.ID == userID {
				lb.MyRank = r.Rank
				break
			}
		}
	}
	return lb, nil
}
