package domain

import "sort"

// RankedProfile is a profile annotated with its 1-based leaderboard rank.
type RankedProfile struct {
	Profile
	Rank int
}

// RankProfiles orders profiles by balance descending and assigns 1-based
// ranks. Ties break deterministically: the older account ranks first, then
// lexicographic ID. The sort is applied even when the input is already
// ordered so the tiebreak never depends on fetch order.
func RankProfiles(profiles []Profile) []RankedProfile {
	sorted := make([]Profile, len(profiles))
	copy(sorted, profiles)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Balance != sorted[j].Balance {
			return sorted[i].Balance > sorted[j].Balance
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	out := make([]RankedProfile, len(sorted))
	for i, p := range sorted {
		out[i] = RankedProfile{Profile: p, Rank: i + 1}
	}
	return out
}
