package server

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

// AdminLocationRequest creates or updates a location.
type AdminLocationRequest struct {
	Slug         string  `json:"slug"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	Description  string  `json:"description"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters int     `json:"checkinRadiusMeters"`
	IsActive     bool    `json:"isActive"`
}

// AdminGameRequest updates a game's economy and visibility.
type AdminGameRequest struct {
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	PointsConversionRate float64 `json:"pointsConversionRate"`
	MaxPointsPerGame     int     `json:"maxPointsPerGame"`
	IsActive             bool    `json:"isActive"`
}

func handleAdminListLocations(store *loyalty.SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locations, err := store.ListLocations(r.Context(), false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if locations == nil {
			locations = []loyalty.Location{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"locations": locations})
	}
}

func handleAdminCreateLocation(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLocationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Slug = strings.TrimSpace(req.Slug)
		req.Name = strings.TrimSpace(req.Name)
		if req.Slug == "" || req.Name == "" {
			writeError(w, http.StatusBadRequest, "slug and name are required")
			return
		}
		if req.RadiusMeters <= 0 {
			req.RadiusMeters = 100
		}

		var id int64
		err := db.QueryRowContext(r.Context(), `
			INSERT INTO locations (slug, name, address, city, description, latitude, longitude, checkin_radius_meters, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`, req.Slug, req.Name, req.Address, req.City, req.Description,
			req.Latitude, req.Longitude, req.RadiusMeters, req.IsActive).Scan(&id)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE") {
				writeError(w, http.StatusConflict, "slug already exists")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	}
}

func handleAdminUpdateLocation(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "locationID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid location id")
			return
		}

		var req AdminLocationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.RadiusMeters <= 0 {
			req.RadiusMeters = 100
		}

		result, err := db.ExecContext(r.Context(), `
			UPDATE locations SET
				name = ?, address = ?, city = ?, description = ?,
				latitude = ?, longitude = ?, checkin_radius_meters = ?, is_active = ?
			WHERE id = ?
		`, req.Name, req.Address, req.City, req.Description,
			req.Latitude, req.Longitude, req.RadiusMeters, req.IsActive, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			writeError(w, http.StatusNotFound, "location not found")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleAdminListGames(store *loyalty.SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := store.ListGames(r.Context(), false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if games == nil {
			games = []loyalty.Game{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"games": games})
	}
}

func handleAdminUpdateGame(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}

		var req AdminGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.PointsConversionRate <= 0 || req.MaxPointsPerGame <= 0 {
			writeError(w, http.StatusBadRequest, "conversion rate and max points must be positive")
			return
		}

		result, err := db.ExecContext(r.Context(), `
			UPDATE games SET
				name = ?, description = ?, points_conversion_rate = ?,
				max_points_per_game = ?, is_active = ?
			WHERE id = ?
		`, req.Name, req.Description, req.PointsConversionRate, req.MaxPointsPerGame, req.IsActive, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
