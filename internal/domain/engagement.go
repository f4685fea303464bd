// Package domain holds the RELOOK core types.
// The progression engine drives retention through XP, levels, streaks,
// daily missions, achievements and a small cosmetic store.
// Domain types are pure: no storage, transport or logging dependency.
package domain

import "time"

// ─── Rewards ────────────────────────────────────────────────────────────────

// Rewards is the user's XP/level/streak record.
// Invariant: XP < 1000*Level after every update.
type Rewards struct {
	XP           int       `json:"xp"`
	Level        int       `json:"level"`
	Streak       int       `json:"streak"`
	LastActivity time.Time `json:"last_activity"`
}

// NewRewards returns the starting record for a fresh install.
func NewRewards() Rewards {
	return Rewards{Level: 1}
}

// ─── Missions ───────────────────────────────────────────────────────────────

// MissionID identifies a mission template.
type MissionID string

const (
	MissionClassifyFirstItem MissionID = "classify_first_item"
	MissionSaveItems         MissionID = "save_x_items"
	MissionOrganizeItem      MissionID = "organize_item"
	MissionCreateDeck        MissionID = "create_deck"
	MissionCompleteReminder  MissionID = "complete_reminder"
)

// Mission is one entry of the daily mission set.
type Mission struct {
	ID          MissionID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	XP          int       `json:"xp"`
	Goal        int       `json:"goal"`
	Progress    int       `json:"progress"`
}

// Complete reports whether the mission reached its goal.
func (m Mission) Complete() bool {
	return m.Progress >= m.Goal
}

// ProgressPct returns completion percentage (0-100).
func (m Mission) ProgressPct() float64 {
	if m.Goal <= 0 {
		return 100.0
	}
	pct := float64(m.Progress) / float64(m.Goal) * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// ─── Achievements ───────────────────────────────────────────────────────────

// Achievement is a catalog entry with its live progress.
// Reward is free text; "<emoji> +<N> XP" grants N XP on unlock.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Goal        int    `json:"goal"`
	Progress    int    `json:"progress"`
	Unlocked    bool   `json:"unlocked"`
	Reward      string `json:"reward"`
}

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationType categorizes engine notifications.
type NotificationType string

const (
	NotifyCombo           NotificationType = "combo"
	NotifyStreak          NotificationType = "streak"
	NotifyLevelUp         NotificationType = "level_up"
	NotifyMissionComplete NotificationType = "mission_complete"
	NotifyAchievement     NotificationType = "achievement"
	NotifyMysteryBox      NotificationType = "mystery_box"
)

// Notification is a user-facing message emitted by the engine.
type Notification struct {
	ID        int64            `json:"id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Value     int              `json:"value,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// ─── Cosmetics ──────────────────────────────────────────────────────────────

// CosmeticSlot is where an equipped cosmetic is shown.
type CosmeticSlot string

const (
	SlotTheme  CosmeticSlot = "theme"
	SlotAvatar CosmeticSlot = "avatar"
	SlotBadge  CosmeticSlot = "badge"
	SlotFrame  CosmeticSlot = "frame"
)

// Cosmetic is a store item purchasable with XP.
type Cosmetic struct {
	ID    string       `json:"id" yaml:"id"`
	Name  string       `json:"name" yaml:"name"`
	Slot  CosmeticSlot `json:"slot" yaml:"slot"`
	Price int          `json:"price" yaml:"price"`
	Icon  string       `json:"icon" yaml:"icon"`
}

// Purchase is a ledger entry for an XP spend in the store.
type Purchase struct {
	ID         int64     `json:"id"`
	CosmeticID string    `json:"cosmetic_id"`
	Price      int       `json:"price"`
	XPBefore   int       `json:"xp_before"`
	XPAfter    int       `json:"xp_after"`
	At         time.Time `json:"at"`
}

// ─── Aggregate State ────────────────────────────────────────────────────────

// State is the full progression snapshot. The engine mutates it in memory;
// callers decide whether to persist it.
type State struct {
	Rewards             Rewards                 `json:"rewards"`
	Items               []Item                  `json:"items"`
	Decks               []Deck                  `json:"decks"`
	Reminders           []Reminder              `json:"reminders"`
	Missions            []Mission               `json:"missions"`
	Achievements        []Achievement           `json:"achievements"`
	LastMissionDate     time.Time               `json:"last_mission_date"`
	MysteryBoxAvailable bool                    `json:"mystery_box_available"`
	MysteryBoxClaimed   bool                    `json:"mystery_box_claimed"`
	Equipped            map[CosmeticSlot]string `json:"equipped_cosmetics"`
	Owned               []string                `json:"owned_cosmetics"`
}

// NewState returns an empty state with level 1 rewards.
func NewState() *State {
	return &State{
		Rewards:  NewRewards(),
		Equipped: make(map[CosmeticSlot]string),
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	cp := *s
	cp.Items = make([]Item, len(s.Items))
	for i, it := range s.Items {
		cp.Items[i] = it.Clone()
	}
	cp.Decks = append([]Deck(nil), s.Decks...)
	cp.Reminders = append([]Reminder(nil), s.Reminders...)
	cp.Missions = append([]Mission(nil), s.Missions...)
	cp.Achievements = append([]Achievement(nil), s.Achievements...)
	cp.Owned = append([]string(nil), s.Owned...)
	cp.Equipped = make(map[CosmeticSlot]string, len(s.Equipped))
	for k, v := range s.Equipped {
		cp.Equipped[k] = v
	}
	return &cp
}

// ItemsCreatedOn counts items whose creation falls on day's calendar date.
func (s *State) ItemsCreatedOn(day time.Time) int {
	n := 0
	for _, it := range s.Items {
		if SameDay(it.CreatedAt.In(day.Location()), day) {
			n++
		}
	}
	return n
}

// SameDay reports whether a and b share year, month and day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
