package engagement

import (
	"time"

	"github.com/relook-app/relook/internal/domain"
)

// RolloverIfNewDay draws a fresh daily mission set when now falls on a
// different calendar day than the last draw (or none happened yet), and
// resets mystery box eligibility. When the stored date is today but the
// mission list is empty, missions are repopulated and the box is kept.
// Returns true when missions were (re)drawn.
func RolloverIfNewDay(s *domain.State, now time.Time, p domain.Picker) bool {
	if s.LastMissionDate.IsZero() || !domain.SameDay(now, s.LastMissionDate) {
		s.Missions = DrawDailyMissions(p, DailyMissionCount)
		s.MysteryBoxAvailable = false
		s.MysteryBoxClaimed = false
		s.LastMissionDate = now
		return true
	}
	if len(s.Missions) == 0 {
		s.Missions = DrawDailyMissions(p, DailyMissionCount)
		return true
	}
	return false
}

// SeedAchievements fills an empty catalog from the blueprint. It is a
// one-time bootstrap; a populated catalog is never reseeded.
func SeedAchievements(s *domain.State) bool {
	if len(s.Achievements) > 0 {
		return false
	}
	s.Achievements = Blueprint()
	return true
}
