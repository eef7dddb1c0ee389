package gamification

// LevelThresholds is the cumulative XP floor for each level, indexed by
// level - 1. Level 1 starts at 0.
var LevelThresholds = []int{
	0, 100, 250, 500, 1000, 2000, 4000, 8000, 16000, 32000, 64000, 128000, 256000,
}

// MaxLevel is the highest defined level.
func MaxLevel() int {
	return len(LevelThresholds)
}

// LevelOf returns the level for a cumulative XP total. Negative or
// malformed input degrades to level 1.
func LevelOf(xp int) int {
	if xp < 0 {
		return 1
	}
	for i := len(LevelThresholds) - 1; i >= 0; i-- {
		if xp >= LevelThresholds[i] {
			return i + 1
		}
	}
	return 1
}

// NextLevelXP returns the XP threshold of the level after the current one.
// At the maximum level there is no next threshold; the current one is
// returned so callers render a full bar instead of garbage.
func NextLevelXP(xp int) int {
	level := LevelOf(xp)
	if level >= len(LevelThresholds) {
		return LevelThresholds[len(LevelThresholds)-1]
	}
	return LevelThresholds[level]
}

// XPToNextLevel returns how much XP is still needed to level up,
// or 0 at the maximum level.
func XPToNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	level := LevelOf(xp)
	if level >= len(LevelThresholds) {
		return 0
	}
	next := LevelThresholds[level]
	if next <= xp {
		return 0
	}
	return next - xp
}

// ProgressFraction returns how far into the current level the XP total is,
// in [0, 1]. The maximum level always reports 1.
func ProgressFraction(xp int) float64 {
	if xp < 0 {
		xp = 0
	}
	level := LevelOf(xp)
	if level >= len(LevelThresholds) {
		return 1
	}
	current := LevelThresholds[level-1]
	next := LevelThresholds[level]

	fraction := float64(xp-current) / float64(next-current)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
