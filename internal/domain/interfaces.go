package domain

import (
	"context"
	"time"
)

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the engine and application layer depend on them.

// Classifier turns raw user content into a structured classification.
// Returns ErrClassifierUnavailable when it cannot run at all.
type Classifier interface {
	Classify(ctx context.Context, in Input) (*Classification, error)
}

// StateStore persists progression snapshots.
type StateStore interface {
	LoadState() (*State, error)
	SaveState(s *State) error
}

// Scheduler runs delayed callbacks. Cancel reports whether the callback
// was stopped before it ran.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func() bool)
}

// Clock returns the current time in the user's local zone.
type Clock interface {
	Now() time.Time
}

// Notifier receives engine notifications (combo, streak, reward modal).
type Notifier interface {
	Notify(n Notification)
}

// Picker yields a random permutation of [0,n). *rand.Rand satisfies it.
type Picker interface {
	Perm(n int) []int
}
