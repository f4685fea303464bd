// Package engagement implements the RELOOK progression engine.
// Leveling, streaks, daily missions, achievements, the capture/undo
// coordinator and the daily reset all live here. Functions are pure
// over domain values; the Coordinator owns the only mutable state.
package engagement

import (
	"time"

	"github.com/relook-app/relook/internal/domain"
)

// ApplyActivity records an XP-granting action at now.
// Same calendar day: streak unchanged. Last activity yesterday: streak+1.
// Any larger gap (or no prior activity) starts over at 1, since today
// is the first day of the new streak. LastActivity always becomes now.
func ApplyActivity(r domain.Rewards, now time.Time) domain.Rewards {
	switch {
	case r.LastActivity.IsZero():
		r.Streak = 1
	case domain.SameDay(now, r.LastActivity):
		// already counted today
	case domain.SameDay(now.AddDate(0, 0, -1), r.LastActivity):
		r.Streak++
	default:
		r.Streak = 1
	}
	r.LastActivity = now
	return r
}
