package levels

import "testing"

func TestForExperience(t *testing.T) {
	tests := []struct {
		experience int
		want       int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{1000, 5},
		{4499, 9},
		{4500, 10},
		{1000000, 10},
	}

	for _, tt := range tests {
		if got := ForExperience(tt.experience); got != tt.want {
			t.Errorf("ForExperience(%d) = %d, want %d", tt.experience, got, tt.want)
		}
	}
}

func TestForExperienceMonotonic(t *testing.T) {
	prev := 0
	for xp := 0; xp <= 5000; xp += 7 {
		level := ForExperience(xp)
		if level < prev {
			t.Fatalf("level decreased: ForExperience(%d) = %d, previous %d", xp, level, prev)
		}
		prev = level
	}
}

func TestBonusMonotonic(t *testing.T) {
	prev := -1.0
	for level := 1; level <= MaxLevel; level++ {
		b := Bonus(level)
		if b < prev {
			t.Fatalf("bonus decreased at level %d: %v < %v", level, b, prev)
		}
		prev = b
	}

	if Bonus(1) != 0 {
		t.Errorf("Bonus(1) = %v, want 0", Bonus(1))
	}
	if Bonus(MaxLevel) != 0.50 {
		t.Errorf("Bonus(%d) = %v, want 0.50", MaxLevel, Bonus(MaxLevel))
	}
}

func TestAwardPoints(t *testing.T) {
	tests := []struct {
		base, level, want int
	}{
		{1, 1, 1},     // no bonus at level 1
		{20, 3, 22},   // 10% bonus, floor(20*1.10)
		{1, 3, 1},     // floor(1*1.10)
		{100, 10, 150},
		{0, 5, 0},
	}

	for _, tt := range tests {
		if got := AwardPoints(tt.base, tt.level); got != tt.want {
			t.Errorf("AwardPoints(%d, %d) = %d, want %d", tt.base, tt.level, got, tt.want)
		}
	}
}

func TestThresholds(t *testing.T) {
	if got := NextThreshold(1); got != 100 {
		t.Errorf("NextThreshold(1) = %d, want 100", got)
	}
	if got := NextThreshold(MaxLevel); got != -1 {
		t.Errorf("NextThreshold(max) = %d, want -1", got)
	}
	if got := FloorThreshold(1); got != 0 {
		t.Errorf("FloorThreshold(1) = %d, want 0", got)
	}
	if got := FloorThreshold(3); got != 300 {
		t.Errorf("FloorThreshold(3) = %d, want 300", got)
	}
}
