package cli

import (
	"fmt"
	"strings"

	"github.com/relook-app/relook/internal/app/engagement"
	"github.com/relook-app/relook/internal/domain"
)

// ─── XP Bar ─────────────────────────────────────────────────────────────────
// Shows: [=============>................]  47% | 470 / 1000 XP

const barWidth = 30 // Characters for the progress bar

// renderBar draws a fixed-width bar for pct in [0,100].
func renderBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	var bar string
	switch {
	case filled == barWidth:
		bar = strings.Repeat("=", filled)
	case filled > 0:
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty)
	default:
		bar = strings.Repeat(".", barWidth)
	}
	return "[" + barFillStyle.Render(bar) + "]"
}

// renderLevel shows the level bar for r.
func renderLevel(r domain.Rewards) string {
	return fmt.Sprintf("%s %3.0f%% | %d / %d XP",
		renderBar(engagement.ProgressPct(r)),
		engagement.ProgressPct(r),
		r.XP, engagement.Threshold(r.Level))
}

// renderMission shows one mission with its own bar.
func renderMission(m domain.Mission) string {
	mark := "[ ]"
	if m.Complete() {
		mark = doneStyle.Render("[x]")
	}
	return fmt.Sprintf("%s %-26s %s %d/%d  +%d XP",
		mark, m.Title, renderBar(m.ProgressPct()), m.Progress, m.Goal, m.XP)
}
