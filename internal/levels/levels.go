// Package levels maps accumulated experience to user levels and the
// points-bonus multiplier each level grants. The bonus applies to point
// awards only, never to experience.
package levels

import "math"

// thresholds[i] is the experience required to leave level i+1. A user is at
// the first level whose threshold their experience has not yet reached.
var thresholds = [...]int{0, 100, 300, 600, 1000, 1500, 2100, 2800, 3600, 4500}

// MaxLevel is the level cap.
const MaxLevel = 10

// bonuses[level] is the points multiplier bonus for that level. Level 10
// jumps from 40% to 50%.
var bonuses = [...]float64{0, 0, 0.05, 0.10, 0.15, 0.20, 0.25, 0.30, 0.35, 0.40, 0.50}

// ForExperience returns the level for the given experience, in [1, MaxLevel].
func ForExperience(experience int) int {
	for i, threshold := range thresholds {
		if experience < threshold {
			return i
		}
	}
	return MaxLevel
}

// Bonus returns the points multiplier bonus for a level. Out-of-range levels
// get no bonus.
func Bonus(level int) float64 {
	if level < 1 || level > MaxLevel {
		return 0
	}
	return bonuses[level]
}

// AwardPoints applies the level bonus to a base points award, truncating to
// an integer.
func AwardPoints(basePoints, level int) int {
	return int(math.Floor(float64(basePoints) * (1 + Bonus(level))))
}

// NextThreshold returns the experience needed for the next level, or -1 at
// the cap. Used for the "progress within level" profile field.
func NextThreshold(level int) int {
	if level >= MaxLevel {
		return -1
	}
	return thresholds[level]
}

// FloorThreshold returns the experience at which the given level begins.
func FloorThreshold(level int) int {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return thresholds[level-1]
}
