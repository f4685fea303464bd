package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(missionsCmd)
	rootCmd.AddCommand(achievementsCmd)
}

var missionsCmd = &cobra.Command{
	Use:   "missions",
	Short: "List today's missions",
	RunE:  runMissions,
}

func runMissions(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	st, err := b.Snapshot()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, titleStyle.Render("Missions for "+st.LastMissionDate.Format("Mon Jan 2")))
	for _, m := range st.Missions {
		fmt.Fprintln(w, renderMission(m))
	}
	return nil
}

var achievementsCmd = &cobra.Command{
	Use:     "achievements",
	Aliases: []string{"ach"},
	Short:   "List achievements and their progress",
	RunE:    runAchievements,
}

func runAchievements(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	st, err := b.Snapshot()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACHIEVEMENT\tPROGRESS\tREWARD\tSTATUS")
	for _, a := range st.Achievements {
		status := "locked"
		if a.Unlocked {
			status = "unlocked"
		}
		fmt.Fprintf(w, "%s\t%d/%d\t%s\t%s\n", a.Title, a.Progress, a.Goal, a.Reward, status)
	}
	return w.Flush()
}
