package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	mysteryBoxCmd.AddCommand(mysteryBoxClaimCmd)
	rootCmd.AddCommand(mysteryBoxCmd)
}

var mysteryBoxCmd = &cobra.Command{
	Use:     "mysterybox",
	Aliases: []string{"box"},
	Short:   "Daily mystery box, unlocked by finishing all missions",
}

var mysteryBoxClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Open today's mystery box",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		bonus, eff, err := b.ClaimMysteryBox()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", titleStyle.Render(fmt.Sprintf("Mystery box opened: %d bonus XP", bonus)))
		printEffects(cmd.OutOrStdout(), eff)
		return nil
	},
}
