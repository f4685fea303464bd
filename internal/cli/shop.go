package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	shopCmd.AddCommand(shopListCmd, shopBuyCmd, shopEquipCmd)
	rootCmd.AddCommand(shopCmd)
}

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Spend XP on cosmetics",
}

var shopListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List cosmetics",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		view, err := b.Shop()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s  %s\n\n",
			xpStyle.Render(fmt.Sprintf("%d XP", view.XP)),
			mutedStyle.Render(fmt.Sprintf("(spent %d XP)", view.TotalSpent)))
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSLOT\tPRICE\tSTATUS")
		for _, l := range view.Cosmetics {
			status := ""
			switch {
			case l.Equipped:
				status = "equipped"
			case l.Owned:
				status = "owned"
			case !l.Affordable:
				status = "need more XP"
			}
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%d\t%s\n", l.ID, l.Icon, l.Name, l.Slot, l.Price, status)
		}
		return w.Flush()
	},
}

var shopBuyCmd = &cobra.Command{
	Use:   "buy ID",
	Short: "Buy a cosmetic with XP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		c, rewards, err := b.Purchase(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Bought %s %s for %d XP (%d XP left)\n", c.Icon, c.Name, c.Price, rewards.XP)
		return nil
	},
}

var shopEquipCmd = &cobra.Command{
	Use:   "equip ID",
	Short: "Equip an owned cosmetic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		c, err := b.Equip(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Equipped %s %s as your %s\n", c.Icon, c.Name, c.Slot)
		return nil
	},
}
