package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

// EventProgressRequest is a partial progress document; keys overwrite the
// stored ones.
type EventProgressRequest struct {
	Progress map[string]int `json:"progress"`
}

func handleListEvents(events *loyalty.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := events.ListEvents(r.Context(), q.Get("status"), q.Get("type"), q.Get("featured") == "true")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if list == nil {
			list = []loyalty.Event{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": list})
	}
}

func handleGetEvent(events *loyalty.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := events.EventBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ev)
	}
}

func handleJoinEvent(events *loyalty.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		participant, err := events.Join(r.Context(), user.ID, chi.URLParam(r, "slug"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, participant)
	}
}

func handleEventProgress(events *loyalty.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		var req EventProgressRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		participant, err := events.UpdateProgress(r.Context(), user.ID, chi.URLParam(r, "participationID"), req.Progress)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, participant)
	}
}

func handleClaimRewards(events *loyalty.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)

		rewards, err := events.ClaimRewards(r.Context(), user.ID, chi.URLParam(r, "participationID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rewards": rewards})
	}
}
