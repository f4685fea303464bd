package engagement

import "github.com/relook-app/relook/internal/domain"

// DailyMissionCount is the size of each day's mission set.
const DailyMissionCount = 3

// missionPool is the set of possible daily missions.
var missionPool = []domain.Mission{
	{ID: domain.MissionClassifyFirstItem, Title: "Classify an item", Description: "Let RELOOK sort something you saved", XP: 50, Goal: 1},
	{ID: domain.MissionSaveItems, Title: "Save 3 items today", Description: "Capture three things worth a second look", XP: 100, Goal: 3},
	{ID: domain.MissionOrganizeItem, Title: "Organize 3 items", Description: "File items into decks", XP: 75, Goal: 3},
	{ID: domain.MissionCreateDeck, Title: "Create a deck", Description: "Start a new collection", XP: 75, Goal: 1},
	{ID: domain.MissionCompleteReminder, Title: "Complete a reminder", Description: "Follow through on something you saved", XP: 60, Goal: 1},
}

// MissionPool returns a copy of the mission templates.
func MissionPool() []domain.Mission {
	out := make([]domain.Mission, len(missionPool))
	copy(out, missionPool)
	return out
}

// DrawDailyMissions picks n missions with distinct IDs, all at progress 0.
func DrawDailyMissions(p domain.Picker, n int) []domain.Mission {
	pool := MissionPool()
	seen := make(map[domain.MissionID]bool)
	missions := make([]domain.Mission, 0, n)
	for _, i := range p.Perm(len(pool)) {
		if len(missions) >= n {
			break
		}
		m := pool[i]
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		m.Progress = 0
		missions = append(missions, m)
	}
	return missions
}

// MissionResult reports the XP earned by a progress update.
// Completed is set only on the update that crossed the goal.
type MissionResult struct {
	XP        int
	Completed *domain.Mission
}

// Advance adds amount to the first incomplete mission with the given id,
// capping progress at the goal. Completion XP is reported exactly once.
// Unknown or already complete missions are left alone.
func Advance(missions []domain.Mission, id domain.MissionID, amount int) ([]domain.Mission, MissionResult) {
	out := make([]domain.Mission, len(missions))
	copy(out, missions)
	for i := range out {
		if out[i].ID != id || out[i].Complete() {
			continue
		}
		return out, raise(&out[i], out[i].Progress+amount)
	}
	return out, MissionResult{}
}

// SetProgress raises the mission's progress to value, for missions whose
// progress is measured rather than counted. Progress never goes down.
func SetProgress(missions []domain.Mission, id domain.MissionID, value int) ([]domain.Mission, MissionResult) {
	out := make([]domain.Mission, len(missions))
	copy(out, missions)
	for i := range out {
		if out[i].ID != id || out[i].Complete() {
			continue
		}
		return out, raise(&out[i], value)
	}
	return out, MissionResult{}
}

func raise(m *domain.Mission, value int) MissionResult {
	if value > m.Goal {
		value = m.Goal
	}
	if value <= m.Progress {
		return MissionResult{}
	}
	m.Progress = value
	if !m.Complete() {
		return MissionResult{}
	}
	done := *m
	return MissionResult{XP: m.XP, Completed: &done}
}

// AllComplete reports whether a non-empty mission set is fully done.
func AllComplete(missions []domain.Mission) bool {
	if len(missions) == 0 {
		return false
	}
	for _, m := range missions {
		if !m.Complete() {
			return false
		}
	}
	return true
}
