package server

import (
	"net/http"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

func handleAchievements(achievements *loyalty.AchievementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		statuses, err := achievements.ForUser(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"achievements": statuses})
	}
}
