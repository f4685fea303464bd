package engagement

import (
	"regexp"
	"strconv"
	"time"

	"github.com/relook-app/relook/internal/domain"
)

// Achievement IDs referenced outside the catalog.
const (
	AchievementNightOwl = "night_owl"
)

// Counters is the live aggregate snapshot fed to the evaluator.
type Counters struct {
	Items    int
	Decks    int
	Streak   int
	NightOwl int // set by the coordinator, not derivable from aggregates
}

// achievementDef pairs a catalog entry with the counter it tracks.
type achievementDef struct {
	domain.Achievement
	counter func(Counters) int
}

func countItems(c Counters) int    { return c.Items }
func countDecks(c Counters) int    { return c.Decks }
func countStreak(c Counters) int   { return c.Streak }
func countNightOwl(c Counters) int { return c.NightOwl }

// catalog is the fixed achievement blueprint.
var catalog = []achievementDef{
	{domain.Achievement{ID: "first_capture", Title: "First Save", Description: "Save your first item", Goal: 1, Reward: "🎯 +100 XP"}, countItems},
	{domain.Achievement{ID: "collector", Title: "Collector", Description: "Save 25 items", Goal: 25, Reward: "📦 +500 XP"}, countItems},
	{domain.Achievement{ID: "librarian", Title: "Librarian", Description: "Save 100 items", Goal: 100, Reward: "📚 Librarian badge"}, countItems},
	{domain.Achievement{ID: "deck_builder", Title: "Deck Builder", Description: "Have 5 decks", Goal: 5, Reward: "🗂️ +250 XP"}, countDecks},
	{domain.Achievement{ID: "streak_3", Title: "On a Roll", Description: "Keep a 3-day streak", Goal: 3, Reward: "🔥 +150 XP"}, countStreak},
	{domain.Achievement{ID: "streak_7", Title: "Week Warrior", Description: "Keep a 7-day streak", Goal: 7, Reward: "⚡ +500 XP"}, countStreak},
	{domain.Achievement{ID: AchievementNightOwl, Title: "Night Owl", Description: "Save something between 11pm and 4am", Goal: 1, Reward: "🦉 +200 XP"}, countNightOwl},
}

// Blueprint returns the catalog with zero progress, all locked.
func Blueprint() []domain.Achievement {
	out := make([]domain.Achievement, len(catalog))
	for i, def := range catalog {
		out[i] = def.Achievement
	}
	return out
}

// Unlock is emitted once per achievement when it unlocks.
// XP is 0 when the reward text carries no "+N XP".
type Unlock struct {
	Achievement domain.Achievement
	XP          int
}

// Evaluate recomputes progress for every locked achievement from the
// counters and unlocks those that reached their goal. Unlocked entries
// are never touched again, so their progress stays pinned at goal.
func Evaluate(achievements []domain.Achievement, c Counters) ([]domain.Achievement, []Unlock) {
	out := make([]domain.Achievement, len(achievements))
	copy(out, achievements)

	var unlocks []Unlock
	for i := range out {
		a := &out[i]
		if a.Unlocked {
			continue
		}
		def, ok := lookup(a.ID)
		if !ok {
			continue
		}
		current := def.counter(c)
		if current >= a.Goal {
			a.Progress = a.Goal
			a.Unlocked = true
			xp, _ := ParseRewardXP(a.Reward)
			unlocks = append(unlocks, Unlock{Achievement: *a, XP: xp})
			continue
		}
		a.Progress = current
	}
	return out, unlocks
}

func lookup(id string) (achievementDef, bool) {
	for _, def := range catalog {
		if def.ID == id {
			return def, true
		}
	}
	return achievementDef{}, false
}

var rewardXPPattern = regexp.MustCompile(`\+(\d+)\s*XP\b`)

// ParseRewardXP extracts N from reward text shaped like "🎯 +N XP".
func ParseRewardXP(reward string) (int, bool) {
	m := rewardXPPattern.FindStringSubmatch(reward)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsNightOwlHour reports whether t falls in [23:00, 04:00) local time.
func IsNightOwlHour(t time.Time) bool {
	h := t.Hour()
	return h >= 23 || h < 4
}

// MarkNightOwl sets the night-owl achievement's progress to 1 ahead of
// evaluation. Already unlocked entries are left alone.
func MarkNightOwl(achievements []domain.Achievement) []domain.Achievement {
	out := make([]domain.Achievement, len(achievements))
	copy(out, achievements)
	for i := range out {
		if out[i].ID == AchievementNightOwl && !out[i].Unlocked {
			out[i].Progress = 1
		}
	}
	return out
}

// NightOwlProgress returns the flagged night-owl counter from the catalog.
func NightOwlProgress(achievements []domain.Achievement) int {
	for _, a := range achievements {
		if a.ID == AchievementNightOwl {
			return a.Progress
		}
	}
	return 0
}
