package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relook-app/relook/internal/domain"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show ITEM",
	Short: "Show detailed information about an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
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

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ID:       %s\n", it.ID)
	fmt.Fprintf(w, "Title:    %s\n", it.Title)
	fmt.Fprintf(w, "Type:     %s\n", it.ContentType)
	fmt.Fprintf(w, "Source:   %s\n", it.Source)
	fmt.Fprintf(w, "Saved:    %s\n", it.CreatedAt.Format("2006-01-02 15:04:05"))
	if it.Summary != "" {
		fmt.Fprintf(w, "Summary:  %s\n", it.Summary)
	}
	if len(it.Tags) > 0 {
		fmt.Fprintf(w, "Tags:     %s\n", strings.Join(it.Tags, ", "))
	}
	if decks := deckTitles(st, it); len(decks) > 0 {
		fmt.Fprintf(w, "Decks:    %s\n", strings.Join(decks, ", "))
	}
	for _, r := range st.Reminders {
		if r.ID == it.ReminderID {
			fmt.Fprintf(w, "Reminder: %s (%s)\n", r.DueAt.Format("2006-01-02 15:04"), shortID(r.ID))
		}
	}
	if it.Payload != nil {
		data, err := json.MarshalIndent(it.Payload, "", "  ")
		if err == nil {
			fmt.Fprintf(w, "Details:\n%s\n", data)
		}
	}
	if it.Body != "" {
		fmt.Fprintf(w, "\n%s\n", it.Body)
	}
	return nil
}

func deckTitles(st *domain.State, it domain.Item) []string {
	var out []string
	for _, dk := range st.Decks {
		if it.InDeck(dk.ID) {
			out = append(out, dk.Title)
		}
	}
	return out
}
