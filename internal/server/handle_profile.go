package server

import (
	"net/http"

	"github.com/KILATIV100/perkup-ecosystem/internal/levels"
	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

// ProfileResponse is the user's ledger with level progression context.
type ProfileResponse struct {
	User             loyalty.User                           `json:"user"`
	NextLevelXP      int                                    `json:"nextLevelXp"`
	CurrentLevelXP   int                                    `json:"currentLevelXp"`
	PointsMultiplier float64                                `json:"pointsMultiplier"`
	Stats            map[loyalty.Period]loyalty.PeriodStats `json:"stats"`
}

func handleProfile(leaderboard *loyalty.LeaderboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		stats, err := leaderboard.UserStats(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, ProfileResponse{
			User:             user,
			NextLevelXP:      levels.NextThreshold(user.Level),
			CurrentLevelXP:   levels.FloorThreshold(user.Level),
			PointsMultiplier: 1 + levels.Bonus(user.Level),
			Stats:            stats,
		})
	}
}
