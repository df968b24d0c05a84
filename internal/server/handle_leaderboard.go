package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

const leaderboardCacheTTL = 30 * time.Second

func handleLeaderboard(logger *slog.Logger, db *sql.DB, leaderboard *loyalty.LeaderboardService, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		period := loyalty.Period(q.Get("period"))
		if period == "" {
			period = loyalty.PeriodWeekly
		}
		if !period.Valid() {
			writeError(w, http.StatusBadRequest, "invalid period")
			return
		}
		gameID, _ := strconv.ParseInt(q.Get("gameId"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))

		// The anonymous list is cacheable; a personalized request
		// (requesting user resolved from the bearer token) is not.
		var userID int64
		if token, ok := bearerToken(r); ok {
			// Best effort: an invalid token on this public route just
			// skips the self-rank block.
			if id, err := userIDFromToken(r.Context(), db, token); err == nil {
				userID = id
			}
		}

		cacheKey := fmt.Sprintf("leaderboard:%s:%d:%d", period, gameID, limit)
		if rdb != nil && userID == 0 {
			if cached, err := rdb.Get(r.Context(), cacheKey).Result(); err == nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(cached))
				return
			}
		}

		page, err := leaderboard.Leaderboard(r.Context(), period, gameID, limit, userID)
		if err != nil {
			logger.Error("loading leaderboard", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if rdb != nil && userID == 0 {
			if data, err := json.Marshal(page); err == nil {
				if err := rdb.Set(r.Context(), cacheKey, data, leaderboardCacheTTL).Err(); err != nil {
					logger.Warn("caching leaderboard", "error", err)
				}
			}
		}

		writeJSON(w, http.StatusOK, page)
	}
}

func handleUserStats(leaderboard *loyalty.LeaderboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		stats, err := leaderboard.UserStats(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
	}
}
