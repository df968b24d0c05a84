package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

// StartSessionRequest is the request body for POST /api/games/{slug}/sessions.
type StartSessionRequest struct {
	Platform string `json:"platform"`
}

// EndSessionRequest is the request body for POST /api/games/sessions/{sessionID}/finish.
type EndSessionRequest struct {
	Score           int `json:"score"`
	DurationSeconds int `json:"durationSeconds"`
}

func handleListGames(games *loyalty.GameService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := games.ListGames(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if list == nil {
			list = []loyalty.Game{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"games": list})
	}
}

func handleStartSession(games *loyalty.GameService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		var req StartSessionRequest
		if r.ContentLength > 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		session, err := games.StartSession(r.Context(), user.ID, chi.URLParam(r, "slug"), req.Platform)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

func handleEndSession(logger *slog.Logger, games *loyalty.GameService, achievements *loyalty.AchievementService, store *loyalty.SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		var req EndSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := games.EndSession(r.Context(), user.ID, chi.URLParam(r, "sessionID"), req.Score, req.DurationSeconds)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		if updated, err := store.UserByID(r.Context(), user.ID); err == nil {
			if err := achievements.OnGameCompleted(r.Context(), updated, req.Score); err != nil {
				logger.Error("evaluating achievements", "user_id", user.ID, "error", err)
			}
		}

		writeJSON(w, http.StatusOK, result)
	}
}
