package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/relook-app/relook/internal/app/engagement"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show level, streak and today's missions",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	st, err := b.Snapshot()
	if err != nil {
		return err
	}
	r := st.Rewards

	streak := fmt.Sprintf("%d day", r.Streak)
	if r.Streak != 1 {
		streak += "s"
	}

	var lines []string
	lines = append(lines,
		titleStyle.Render(fmt.Sprintf("Level %d", r.Level)),
		renderLevel(r),
		fmt.Sprintf("Streak: %s   Items: %d   Decks: %d", streak, len(st.Items), len(st.Decks)),
		"",
		titleStyle.Render("Today's missions"),
	)
	for _, m := range st.Missions {
		lines = append(lines, renderMission(m))
	}
	switch {
	case st.MysteryBoxAvailable:
		lines = append(lines, "", warnStyle.Render("Mystery box ready! Run 'relook mysterybox claim'."))
	case st.MysteryBoxClaimed:
		lines = append(lines, "", mutedStyle.Render("Mystery box claimed today."))
	case engagement.AllComplete(st.Missions):
		lines = append(lines, "", doneStyle.Render("All missions complete."))
	}

	if len(st.Owned) > 0 {
		var eq []string
		for slot, id := range st.Equipped {
			eq = append(eq, fmt.Sprintf("%s=%s", slot, id))
		}
		sort.Strings(eq)
		if len(eq) > 0 {
			lines = append(lines, "", mutedStyle.Render("Equipped: "+strings.Join(eq, ", ")))
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return nil
}
