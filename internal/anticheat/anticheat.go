// Package anticheat rejects implausible game scores. This is a plausibility
// bound on score-per-second, not proof of fairness; false positives and
// negatives are acceptable.
package anticheat

// maxScorePerSecond caps how fast each game can plausibly produce score.
var maxScorePerSecond = map[string]int{
	"coffee-jump":  10,
	"coffee-match": 5,
	"barista-rush": 3,
	"coffee-quiz":  2,
	"spin-wheel":   100,
}

const (
	defaultRate = 5
	tolerance   = 1.2
	minDuration = 5
)

// Plausible reports whether a reported score could have been produced in
// durationSeconds of play. Sessions shorter than five seconds are always
// rejected. It deliberately does not say which rule failed; callers surface
// a generic invalid-score error.
func Plausible(score, durationSeconds int, gameSlug string) bool {
	if durationSeconds < minDuration {
		return false
	}

	rate, ok := maxScorePerSecond[gameSlug]
	if !ok {
		rate = defaultRate
	}

	return float64(score) <= float64(durationSeconds*rate)*tolerance
}
