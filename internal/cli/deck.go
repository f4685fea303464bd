package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	deckCmd.AddCommand(deckListCmd, deckCreateCmd, deckOrganizeCmd)
	rootCmd.AddCommand(deckCmd)
}

var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Manage decks",
}

var deckListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List decks",
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
		if len(st.Decks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No decks yet. Run 'relook deck create <title>' to add one.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tITEMS\tKIND")
		for _, dk := range st.Decks {
			n := 0
			for _, it := range st.Items {
				if it.InDeck(dk.ID) {
					n++
				}
			}
			kind := "user"
			if dk.Auto {
				kind = "auto"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", shortID(dk.ID), dk.Title, n, kind)
		}
		return w.Flush()
	},
}

var deckCreateCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create a deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		deck, eff, err := b.CreateDeck(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created deck %q %s\n", deck.Title, mutedStyle.Render(shortID(deck.ID)))
		printEffects(cmd.OutOrStdout(), eff)
		return nil
	},
}

var deckOrganizeCmd = &cobra.Command{
	Use:   "organize ITEM DECK",
	Short: "File an item into a deck (deck by id or title)",
	Args:  cobra.ExactArgs(2),
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
		item, err := findItem(st, args[0])
		if err != nil {
			return err
		}
		deck, err := findDeck(st, args[1])
		if err != nil {
			return err
		}
		eff, err := b.OrganizeItem(item.ID, deck.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Filed %q into %q\n", item.Title, deck.Title)
		printEffects(cmd.OutOrStdout(), eff)
		return nil
	},
}
