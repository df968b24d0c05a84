package loyalty

import (
	"encoding/json"
	"strconv"
)

// Requirements is the closed set of requirement kinds an event can carry.
// Events stored with keys outside this set still decode; the unknown keys are
// vacuously satisfied, which keeps old stored events valid.
type Requirements struct {
	MinLevel    int           `json:"min_level,omitempty"`
	MinCheckins int           `json:"min_checkins,omitempty"`
	MinPoints   int           `json:"min_points,omitempty"`
	Checkins    []CheckinGoal `json:"checkins,omitempty"`
}

// CheckinGoal is one sub-goal of a check-in challenge: visit a location a
// number of times.
type CheckinGoal struct {
	LocationID int64 `json:"location_id"`
	Count      int   `json:"count"`
}

// ParseRequirements decodes a stored requirement descriptor. nil or empty
// input yields the zero value (no requirements).
func ParseRequirements(raw json.RawMessage) (Requirements, error) {
	var req Requirements
	if len(raw) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, err
	}
	return req, nil
}

// Empty reports whether no requirement kind is present.
func (r Requirements) Empty() bool {
	return r.MinLevel == 0 && r.MinCheckins == 0 && r.MinPoints == 0 && len(r.Checkins) == 0
}

// MetBy checks every present requirement against the user's aggregate state.
// Absent requirements pass.
func (r Requirements) MetBy(u User) bool {
	if r.MinLevel > 0 && u.Level < r.MinLevel {
		return false
	}
	if r.MinCheckins > 0 && u.TotalCheckins < r.MinCheckins {
		return false
	}
	if r.MinPoints > 0 && u.Points < r.MinPoints {
		return false
	}
	return true
}

// goalKey is the progress-document key for a check-in sub-goal.
func (g CheckinGoal) goalKey() string {
	return "location_" + strconv.FormatInt(g.LocationID, 10)
}

// ProgressPercent computes completion from a progress document. No
// requirements means instant completion. A check-in goal list completes
// proportionally; the scalar kinds are join gates, not tracked progress, so
// on their own they report 0 until completion is driven externally.
func (r Requirements) ProgressPercent(progress map[string]int) int {
	if r.Empty() {
		return 100
	}
	if len(r.Checkins) == 0 {
		return 0
	}

	satisfied := 0
	for _, goal := range r.Checkins {
		want := goal.Count
		if want < 1 {
			want = 1
		}
		if progress[goal.goalKey()] >= want {
			satisfied++
		}
	}
	return 100 * satisfied / len(r.Checkins)
}
