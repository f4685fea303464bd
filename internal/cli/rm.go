package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rmCmd)
}

var rmCmd = &cobra.Command{
	Use:   "rm ITEM",
	Short: "Delete an item and its reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	st, err := b.Snapshot()
	if err != nil {
		return err
	}
	it, err := findItem(st, args[0])
	if err != nil {
		return err
	}
	if err := b.DeleteItem(it.ID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", it.Title)
	return nil
}
