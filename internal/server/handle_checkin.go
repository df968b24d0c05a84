package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

// CheckinRequest is the request body for POST /api/checkins.
type CheckinRequest struct {
	LocationID int64   `json:"locationId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// CheckinHistoryResponse is a page of the user's check-in history.
type CheckinHistoryResponse struct {
	Checkins []loyalty.Checkin `json:"checkins"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PerPage  int               `json:"perPage"`
}

func handleCheckin(logger *slog.Logger, checkins *loyalty.CheckinService, achievements *loyalty.AchievementService, store *loyalty.SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		var req CheckinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.LocationID == 0 {
			writeError(w, http.StatusBadRequest, "locationId is required")
			return
		}
		if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
			writeError(w, http.StatusBadRequest, "invalid coordinates")
			return
		}

		result, err := checkins.PerformCheckin(r.Context(), user.ID, req.LocationID, req.Latitude, req.Longitude)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		// Achievement evaluation runs on the updated totals; its failure must
		// not undo a successful check-in.
		if updated, err := store.UserByID(r.Context(), user.ID); err == nil {
			if err := achievements.OnCheckin(r.Context(), updated); err != nil {
				logger.Error("evaluating achievements", "user_id", user.ID, "error", err)
			}
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleCheckinHistory(checkins *loyalty.CheckinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 {
			perPage = 20
		}

		items, total, err := checkins.History(r.Context(), user.ID, page, perPage)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if items == nil {
			items = []loyalty.Checkin{}
		}

		writeJSON(w, http.StatusOK, CheckinHistoryResponse{
			Checkins: items,
			Total:    total,
			Page:     page,
			PerPage:  perPage,
		})
	}
}
