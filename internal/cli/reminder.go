package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/relook-app/relook/internal/domain"
)

func init() {
	reminderListCmd.Flags().BoolVarP(&reminderAll, "all", "a", false, "Include completed reminders")
	reminderCmd.AddCommand(reminderListCmd, reminderDoneCmd)
	rootCmd.AddCommand(reminderCmd)
}

var reminderAll bool

var reminderCmd = &cobra.Command{
	Use:     "reminder",
	Aliases: []string{"reminders"},
	Short:   "List and complete reminders",
}

var reminderListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List pending reminders",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		fmt.Fprintln(w, "ID\tTITLE\tDUE\tDONE")
		for _, r := range st.Reminders {
			if r.Completed && !reminderAll {
				continue
			}
			done := ""
			if r.Completed {
				done = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortID(r.ID), r.Title, r.DueAt.Format("2006-01-02 15:04"), done)
		}
		return w.Flush()
	},
}

var reminderDoneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Mark a reminder as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		st, err := b.Snapshot()
		if err != nil {
			return err
		}

		id := args[0]
		for _, r := range st.Reminders {
			if strings.HasPrefix(r.ID, id) {
				id = r.ID
				break
			}
		}
		eff, err := b.CompleteReminder(id)
		if errors.Is(err, domain.ErrReminderDone) {
			fmt.Fprintln(cmd.OutOrStdout(), "Reminder was already completed.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Reminder completed.")
		printEffects(cmd.OutOrStdout(), eff)
		return nil
	},
}
