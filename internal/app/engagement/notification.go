package engagement

import (
	"fmt"
	"sync"
	"time"

	"github.com/relook-app/relook/internal/domain"
)

// ─── Notification builders ──────────────────────────────────────────────────

func comboNotification(combo int, now time.Time) domain.Notification {
	return domain.Notification{
		Type:      domain.NotifyCombo,
		Title:     fmt.Sprintf("%dx Combo!", combo),
		Body:      "Keep saving to grow your combo",
		Value:     combo,
		CreatedAt: now,
	}
}

func streakNotification(streak int, now time.Time) domain.Notification {
	return domain.Notification{
		Type:      domain.NotifyStreak,
		Title:     fmt.Sprintf("🔥 %d-day streak", streak),
		Body:      "Come back tomorrow to keep it going",
		Value:     streak,
		CreatedAt: now,
	}
}

func levelUpNotification(level int, now time.Time) domain.Notification {
	return domain.Notification{
		Type:      domain.NotifyLevelUp,
		Title:     fmt.Sprintf("Level %d!", level),
		Body:      fmt.Sprintf("Next level at %d XP", Threshold(level)),
		Value:     level,
		CreatedAt: now,
	}
}

func missionNotification(m domain.Mission, now time.Time) domain.Notification {
	return domain.Notification{
		Type:      domain.NotifyMissionComplete,
		Title:     "Mission complete: " + m.Title,
		Body:      fmt.Sprintf("+%d XP", m.XP),
		Value:     m.XP,
		CreatedAt: now,
	}
}

func achievementNotification(u Unlock, now time.Time) domain.Notification {
	return domain.Notification{
		Type:      domain.NotifyAchievement,
		Title:     "Achievement unlocked: " + u.Achievement.Title,
		Body:      u.Achievement.Reward,
		Value:     u.XP,
		CreatedAt: now,
	}
}

func mysteryBoxNotification(now time.Time) domain.Notification {
	return domain.Notification{
		Type:      domain.NotifyMysteryBox,
		Title:     "🎁 Mystery box unlocked",
		Body:      "All of today's missions are done. Open your box!",
		CreatedAt: now,
	}
}

// ─── Notifiers ──────────────────────────────────────────────────────────────

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(domain.Notification) {}

// MultiNotifier fans a notification out to several notifiers in order.
type MultiNotifier []domain.Notifier

// Notify forwards n to every non-nil notifier in order.
func (m MultiNotifier) Notify(n domain.Notification) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(n)
		}
	}
}

// Recorder keeps every notification in memory. Safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	all []domain.Notification
}

// Notify appends n to the recording.
func (r *Recorder) Notify(n domain.Notification) {
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.all...)
}

// OfType returns the recorded notifications of type t.
func (r *Recorder) OfType(t domain.NotificationType) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.all {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// QuietHours suppresses delivery to the wrapped notifier between Start
// and End (local hours, wrapping midnight when Start > End). Suppressed
// notifications are still returned by the engine in Effects.
type QuietHours struct {
	Next       domain.Notifier
	Start, End int
	Now        func() time.Time
}

// Notify forwards n to Next unless the current hour is quiet. The hour
// comes from Now when set, otherwise from n.CreatedAt.
func (q QuietHours) Notify(n domain.Notification) {
	now := n.CreatedAt
	if q.Now != nil {
		now = q.Now()
	}
	if q.quiet(now.Hour()) {
		return
	}
	q.Next.Notify(n)
}

func (q QuietHours) quiet(hour int) bool {
	if q.Start == q.End {
		return false
	}
	if q.Start > q.End {
		return hour >= q.Start || hour < q.End
	}
	return hour >= q.Start && hour < q.End
}
