package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relook-app/relook/internal/domain"
)

func init() {
	rootCmd.AddCommand(undoCmd)
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last capture (within a few seconds)",
	Long: `Undo the most recent capture while its undo window is open. The
window lives in the running server, so this asks 'relook serve' to undo.
Captures made with 'relook capture' while the server runs can be undone too.`,
	Args: cobra.NoArgs,
	RunE: runUndo,
}

func runUndo(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	err = b.Undo()
	if errors.Is(err, domain.ErrNothingToUndo) {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("undo failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Last capture undone.")
	return nil
}
