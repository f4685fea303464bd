package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/relook-app/relook/internal/domain"
)

// ─── Progression State ──────────────────────────────────────────────────────
// Each entity lives under its own key as a JSON document, mirroring the
// snapshot layout the engine hands back after every action.

// State keys.
const (
	KeyRewards             = "rewards"
	KeyItems               = "items"
	KeyDecks               = "decks"
	KeyReminders           = "reminders"
	KeyMissions            = "missions"
	KeyAchievements        = "achievements"
	KeyLastMissionDate     = "last_mission_date"
	KeyMysteryBoxAvailable = "mystery_box_available"
	KeyMysteryBoxClaimed   = "mystery_box_claimed"
	KeyEquippedCosmetics   = "equipped_cosmetics"
	KeyOwnedCosmetics      = "owned_cosmetics"
)

// stateFields maps every key to the State field it persists.
func stateFields(s *domain.State) []struct {
	key string
	ptr any
} {
	return []struct {
		key string
		ptr any
	}{
		{KeyRewards, &s.Rewards},
		{KeyItems, &s.Items},
		{KeyDecks, &s.Decks},
		{KeyReminders, &s.Reminders},
		{KeyMissions, &s.Missions},
		{KeyAchievements, &s.Achievements},
		{KeyLastMissionDate, &s.LastMissionDate},
		{KeyMysteryBoxAvailable, &s.MysteryBoxAvailable},
		{KeyMysteryBoxClaimed, &s.MysteryBoxClaimed},
		{KeyEquippedCosmetics, &s.Equipped},
		{KeyOwnedCosmetics, &s.Owned},
	}
}

// LoadState reads the full snapshot. Missing keys keep their fresh-install
// defaults, so an empty database yields domain.NewState().
func (d *DB) LoadState() (*domain.State, error) {
	rows, err := d.db.Query(`SELECT key, value FROM state`)
	if err != nil {
		return nil, fmt.Errorf("query state: %w", err)
	}
	defer rows.Close()

	raw := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		raw[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s := domain.NewState()
	for _, f := range stateFields(s) {
		v, ok := raw[f.key]
		if !ok || v == "" || v == "null" {
			continue
		}
		if err := json.Unmarshal([]byte(v), f.ptr); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.key, err)
		}
	}
	if s.Rewards.Level < 1 {
		s.Rewards.Level = 1
	}
	if s.Equipped == nil {
		s.Equipped = make(map[domain.CosmeticSlot]string)
	}
	return s, nil
}

// SaveState writes every key of the snapshot in a single transaction.
func (d *DB) SaveState(s *domain.State) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(
		`INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, f := range stateFields(s) {
		data, err := json.Marshal(f.ptr)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f.key, err)
		}
		if _, err := stmt.Exec(f.key, string(data), now); err != nil {
			return fmt.Errorf("write %s: %w", f.key, err)
		}
	}
	return tx.Commit()
}
