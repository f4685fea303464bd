package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/relook-app/relook/internal/app/engagement"
	"github.com/relook-app/relook/internal/daemon"
	"github.com/relook-app/relook/internal/domain"
)

// Color palette
var (
	colorPrimary = lipgloss.Color("#6C63FF")
	colorSuccess = lipgloss.Color("#2ECC71")
	colorWarning = lipgloss.Color("#F39C12")
	colorMuted   = lipgloss.Color("#666666")
	colorSubtle  = lipgloss.Color("#414868")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	xpStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	doneStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSubtle).Padding(0, 2)
	barFillStyle = lipgloss.NewStyle().Foreground(colorPrimary)
)

// openDaemon wires the services without serving. CLI commands log
// warnings only unless --verbose is set.
func openDaemon(cfg daemon.Config) (*daemon.Daemon, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := daemon.NewLogger(daemon.LoggingConfig{Level: level, Format: "console"})
	if err != nil {
		return nil, err
	}
	d, err := daemon.NewWithLogger(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return d, nil
}

// closeDaemon persists and releases the daemon, flushing its logger.
func closeDaemon(d *daemon.Daemon) {
	d.Close()
	_ = d.Log.Sync()
}

// printEffects summarizes what an action earned.
func printEffects(w io.Writer, eff engagement.Effects) {
	if eff.XP > 0 {
		fmt.Fprintf(w, "  %s\n", xpStyle.Render(fmt.Sprintf("+%d XP", eff.XP)))
	}
	if eff.LevelsGained > 0 {
		fmt.Fprintf(w, "  %s\n", titleStyle.Render(fmt.Sprintf("Level up! (+%d)", eff.LevelsGained)))
	}
	if eff.Deck != nil {
		verb := "Filed into"
		if eff.DeckCreated {
			verb = "Created deck"
		}
		fmt.Fprintf(w, "  %s %q\n", verb, eff.Deck.Title)
	}
	if eff.Reminder != nil {
		fmt.Fprintf(w, "  Reminder set for %s\n", eff.Reminder.DueAt.Format("Mon Jan 2 15:04"))
	}
	for _, m := range eff.Missions {
		fmt.Fprintf(w, "  %s %s\n", doneStyle.Render("Mission complete:"), m.Title)
	}
	for _, u := range eff.Unlocks {
		fmt.Fprintf(w, "  %s %s (%s)\n", doneStyle.Render("Achievement unlocked:"), u.Achievement.Title, u.Achievement.Reward)
	}
	if eff.MysteryBox {
		fmt.Fprintf(w, "  %s\n", warnStyle.Render("Mystery box unlocked! Run 'relook mysterybox claim'."))
	}
}

// shortID trims a uuid for table output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// findItem resolves a full or shortened item id.
func findItem(st *domain.State, ref string) (domain.Item, error) {
	var match []domain.Item
	for _, it := range st.Items {
		if it.ID == ref {
			return it, nil
		}
		if strings.HasPrefix(it.ID, ref) {
			match = append(match, it)
		}
	}
	switch len(match) {
	case 0:
		return domain.Item{}, domain.ErrItemNotFound
	case 1:
		return match[0], nil
	default:
		return domain.Item{}, fmt.Errorf("item id %q is ambiguous", ref)
	}
}

// findDeck resolves a deck by id, id prefix, or title.
func findDeck(st *domain.State, ref string) (domain.Deck, error) {
	for _, d := range st.Decks {
		if d.ID == ref || strings.EqualFold(d.Title, ref) {
			return d, nil
		}
	}
	for _, d := range st.Decks {
		if strings.HasPrefix(d.ID, ref) {
			return d, nil
		}
	}
	return domain.Deck{}, domain.ErrDeckNotFound
}
