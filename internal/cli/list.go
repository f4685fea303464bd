package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/relook-app/relook/internal/domain"
)

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "Only show items of this content type")
	listCmd.Flags().StringVarP(&listDeck, "deck", "d", "", "Only show items in this deck (id or title)")
	rootCmd.AddCommand(listCmd)
}

var (
	listType string
	listDeck string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved items",
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	st, err := b.Snapshot()
	if err != nil {
		return err
	}
	deckID := ""
	if listDeck != "" {
		deck, err := findDeck(st, listDeck)
		if err != nil {
			return err
		}
		deckID = deck.ID
	}

	var items []domain.Item
	for _, it := range st.Items {
		if listType != "" && !strings.EqualFold(string(it.ContentType), listType) {
			continue
		}
		if deckID != "" && !it.InDeck(deckID) {
			continue
		}
		items = append(items, it)
	}

	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No items yet. Run 'relook capture <text>' to save one.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tSAVED")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			shortID(it.ID),
			it.ContentType,
			it.Title,
			it.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}
