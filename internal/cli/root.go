// Package cli implements the RELOOK command-line interface using Cobra.
// Each subcommand maps to one progression action (capture, undo, decks,
// reminders, shop, and so on).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "relook",
	Short: "RELOOK: capture anything, level up for organizing it",
	Long: `RELOOK turns saved snippets (notes, screenshots, voice memos) into
organized items. Every capture earns XP, keeps your streak alive and
advances today's missions.

Run 'relook serve' to start the API, or use the commands below directly
against your local library.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
