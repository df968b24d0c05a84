package loyalty

import "errors"

// Storage-level sentinels. The SQLite store returns these; services translate
// them into the typed *Error taxonomy below.
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicate        = errors.New("duplicate row")
	ErrAlreadyFinalized = errors.New("session already finalized")
	ErrCapacityReached  = errors.New("capacity reached")
)

// Error codes returned to callers. All are expected, recoverable conditions;
// anything else propagates as a plain error and maps to a 5xx upstream.
const (
	CodeLocationNotFound      = "location_not_found"
	CodeLocationInactive      = "location_inactive"
	CodeTooFar                = "too_far"
	CodeCooldownActive        = "cooldown_active"
	CodeGameNotFound          = "game_not_found"
	CodeInvalidScore          = "invalid_score"
	CodeSessionNotFound       = "session_not_found"
	CodeNotYourSession        = "not_your_session"
	CodeAlreadyCompleted      = "already_completed"
	CodeEventNotFound         = "event_not_found"
	CodeEventNotActive        = "event_not_active"
	CodeEventEnded            = "event_ended"
	CodeAlreadyJoined         = "already_joined"
	CodeEventFull             = "event_full"
	CodeRequirementsNotMet    = "requirements_not_met"
	CodeParticipationNotFound = "participation_not_found"
	CodeNotCompleted          = "not_completed"
	CodeAlreadyClaimed        = "already_claimed"
	CodeUserNotFound          = "user_not_found"
)

// Error is a machine-readable engine failure. Details carries per-code
// payload such as the offending distance for too_far.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
