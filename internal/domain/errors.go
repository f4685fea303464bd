package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure: no infrastructure dependency.

var (
	// Capture errors
	ErrEmptyCapture  = errors.New("nothing to capture")
	ErrNothingToUndo = errors.New("no capture pending undo")
	ErrItemNotFound  = errors.New("item not found")
	ErrAlreadyInDeck = errors.New("item already in deck")

	// Deck errors
	ErrDeckNotFound = errors.New("deck not found")
	ErrDeckExists   = errors.New("deck already exists")
	ErrDeckTitle    = errors.New("deck title must not be empty")

	// Reminder errors
	ErrReminderNotFound = errors.New("reminder not found")
	ErrReminderDone     = errors.New("reminder already completed")

	// Store errors
	ErrInsufficientXP   = errors.New("insufficient XP for purchase")
	ErrCosmeticNotFound = errors.New("cosmetic not found")
	ErrCosmeticOwned    = errors.New("cosmetic already owned")
	ErrCosmeticNotOwned = errors.New("cosmetic not owned")

	// Mystery box errors
	ErrMysteryBoxUnavailable = errors.New("mystery box is not available")

	// Classification errors
	ErrClassifierUnavailable = errors.New("classifier unavailable: no credentials configured")
)
