package engagement

import "github.com/relook-app/relook/internal/domain"

// XPPerLevel is the threshold base: leaving level n costs XPPerLevel*n XP.
const XPPerLevel = 1000

// Threshold returns the XP needed to leave the given level.
func Threshold(level int) int {
	if level < 1 {
		level = 1
	}
	return XPPerLevel * level
}

// ApplyXP adds delta XP and rolls full thresholds over into levels.
// A single large grant may cross several levels. Returns the updated
// rewards and the number of levels gained. Level never decreases.
func ApplyXP(r domain.Rewards, delta int) (domain.Rewards, int) {
	if r.Level < 1 {
		r.Level = 1
	}
	r.XP += delta
	if r.XP < 0 {
		r.XP = 0
	}

	gained := 0
	for r.XP >= Threshold(r.Level) {
		r.XP -= Threshold(r.Level)
		r.Level++
		gained++
	}
	return r, gained
}

// SpendXP removes price XP for a store purchase. It clamps at zero and
// bypasses leveling entirely.
func SpendXP(r domain.Rewards, price int) domain.Rewards {
	r.XP -= price
	if r.XP < 0 {
		r.XP = 0
	}
	return r
}

// XPToNextLevel returns XP remaining until the next level.
func XPToNextLevel(r domain.Rewards) int {
	remaining := Threshold(r.Level) - r.XP
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ProgressPct returns progress toward the next level (0.0–100.0).
func ProgressPct(r domain.Rewards) float64 {
	progress := float64(r.XP) / float64(Threshold(r.Level)) * 100.0
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return progress
}
