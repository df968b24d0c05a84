package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// engineStatus maps engine error codes to HTTP statuses. Codes outside the
// map are client mistakes, 400.
var engineStatus = map[string]int{
	loyalty.CodeLocationNotFound:      http.StatusNotFound,
	loyalty.CodeGameNotFound:          http.StatusNotFound,
	loyalty.CodeSessionNotFound:       http.StatusNotFound,
	loyalty.CodeEventNotFound:         http.StatusNotFound,
	loyalty.CodeParticipationNotFound: http.StatusNotFound,
	loyalty.CodeUserNotFound:          http.StatusNotFound,
	loyalty.CodeNotYourSession:        http.StatusForbidden,
	loyalty.CodeCooldownActive:        http.StatusConflict,
	loyalty.CodeAlreadyCompleted:      http.StatusConflict,
	loyalty.CodeAlreadyJoined:         http.StatusConflict,
	loyalty.CodeAlreadyClaimed:        http.StatusConflict,
	loyalty.CodeEventFull:             http.StatusConflict,
	loyalty.CodeTooFar:                http.StatusUnprocessableEntity,
	loyalty.CodeInvalidScore:          http.StatusUnprocessableEntity,
}

// writeEngineError renders a typed engine error with its code and details;
// anything else is an opaque 500.
func writeEngineError(w http.ResponseWriter, err error) {
	var e *loyalty.Error
	if !errors.As(err, &e) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	status, ok := engineStatus[e.Code]
	if !ok {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, e)
}
