package gamification

import "testing"

func TestLevelOf(t *testing.T) {
	tests := []struct {
		name     string
		xp       int
		expected int
	}{
		{"zero xp is level 1", 0, 1},
		{"just below first threshold", 99, 1},
		{"exact threshold boundary", 100, 2},
		{"second threshold boundary", 250, 3},
		{"between thresholds", 300, 3},
		{"negative degrades to level 1", -50, 1},
		{"top threshold", 256000, 13},
		{"beyond top threshold", 1000000, 13},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LevelOf(tc.xp); got != tc.expected {
				t.Errorf("LevelOf(%d) = %d, want %d", tc.xp, got, tc.expected)
			}
		})
	}
}

func TestLevelOf_Monotonic(t *testing.T) {
	prev := 0
	for xp := 0; xp <= 300000; xp += 50 {
		level := LevelOf(xp)
		if level < prev {
			t.Fatalf("LevelOf(%d) = %d dropped below previous level %d", xp, level, prev)
		}
		prev = level
	}
}

func TestXPToNextLevel(t *testing.T) {
	tests := []struct {
		name     string
		xp       int
		expected int
	}{
		{"fresh account", 0, 100},
		{"partway through level 1", 40, 60},
		{"at boundary", 100, 150},
		{"negative treated as zero", -10, 100},
		{"max level has nothing further", 256000, 0},
		{"beyond max level", 999999, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := XPToNextLevel(tc.xp); got != tc.expected {
				t.Errorf("XPToNextLevel(%d) = %d, want %d", tc.xp, got, tc.expected)
			}
		})
	}
}

func TestProgressFraction(t *testing.T) {
	tests := []struct {
		name     string
		xp       int
		expected float64
	}{
		{"start of level", 0, 0},
		{"halfway through level 1", 50, 0.5},
		{"boundary resets to zero", 100, 0},
		{"halfway through level 2", 175, 0.5},
		{"max level is always full", 256000, 1},
		{"beyond max level stays full", 400000, 1},
		{"negative clamps to zero", -5, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ProgressFraction(tc.xp)
			if got < tc.expected-1e-9 || got > tc.expected+1e-9 {
				t.Errorf("ProgressFraction(%d) = %f, want %f", tc.xp, got, tc.expected)
			}
		})
	}
}

func TestNextLevelXP_MaxLevelReturnsCurrentThreshold(t *testing.T) {
	top := LevelThresholds[len(LevelThresholds)-1]
	if got := NextLevelXP(top + 5000); got != top {
		t.Errorf("NextLevelXP beyond max = %d, want %d", got, top)
	}
}
