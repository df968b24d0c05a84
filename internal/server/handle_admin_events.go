package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

// AdminEventRequest creates or updates an event.
type AdminEventRequest struct {
	Slug            string          `json:"slug"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	EventType       string          `json:"eventType"`
	StartsAt        time.Time       `json:"startsAt"`
	EndsAt          time.Time       `json:"endsAt"`
	Requirements    json.RawMessage `json:"requirements"`
	Rewards         json.RawMessage `json:"rewards"`
	MaxParticipants *int            `json:"maxParticipants"`
	Status          string          `json:"status"`
	IsFeatured      bool            `json:"isFeatured"`
}

func (req *AdminEventRequest) validate() string {
	req.Slug = strings.TrimSpace(req.Slug)
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if req.EndsAt.Before(req.StartsAt) {
		return "endsAt must not precede startsAt"
	}
	switch req.EventType {
	case "", "challenge", "tournament", "promotion", "seasonal":
	default:
		return "unknown event type"
	}
	switch req.Status {
	case "", "draft", "active", "ended":
	default:
		return "unknown status"
	}
	if req.MaxParticipants != nil && *req.MaxParticipants <= 0 {
		return "maxParticipants must be positive"
	}
	return ""
}

func (req AdminEventRequest) apply(e *loyalty.Event) {
	e.Title = req.Title
	e.Description = req.Description
	e.EventType = req.EventType
	if e.EventType == "" {
		e.EventType = "challenge"
	}
	e.StartsAt = req.StartsAt
	e.EndsAt = req.EndsAt
	e.Requirements = req.Requirements
	e.Rewards = req.Rewards
	e.MaxParticipants = req.MaxParticipants
	e.Status = req.Status
	if e.Status == "" {
		e.Status = "draft"
	}
	e.IsFeatured = req.IsFeatured
}

func handleAdminListEvents(store *loyalty.SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := store.ListEvents(r.Context(), loyalty.EventFilter{
			Status: r.URL.Query().Get("status"),
			Now:    time.Now().UTC(),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if events == nil {
			events = []loyalty.Event{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}

func handleAdminCreateEvent(store *loyalty.SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminEventRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Slug == "" && strings.TrimSpace(req.Title) != "" {
			req.Slug = slugify(req.Title)
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		if req.Slug == "" {
			writeError(w, http.StatusBadRequest, "slug is required")
			return
		}

		event := loyalty.Event{Slug: req.Slug}
		req.apply(&event)
		if err := store.CreateEvent(r.Context(), &event); err != nil {
			if strings.Contains(err.Error(), "UNIQUE") {
				writeError(w, http.StatusConflict, "slug already exists")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{"event": event})
	}
}

func handleAdminUpdateEvent(store *loyalty.SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "eventID")

		var req AdminEventRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		event, err := store.EventByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, loyalty.ErrNotFound) {
				writeError(w, http.StatusNotFound, "event not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		req.apply(&event)
		if err := store.UpdateEvent(r.Context(), &event); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"event": event})
	}
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
