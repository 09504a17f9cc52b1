package cmd

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account <address>",
	Short: "show committed positions of an account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if !common.IsHexAddress(args[0]) {
			cmd.PrintErrln("invalid address", args[0])
			return
		}

		account := common.HexToAddress(args[0])

		database := provideDatabase()
		defer database.Close()

		positions := providePositionStore(database)
		supplies, err := positions.FindSupplies(ctx, account)
		if err != nil {
			cmd.PrintErrln("find supplies error:", err)
			return
		}

		borrows, err := positions.FindBorrows(ctx, account)
		if err != nil {
			cmd.PrintErrln("find borrows error:", err)
			return
		}

		for _, s := range supplies {
			if s.IsZero() {
				continue
			}

			cmd.Printf("supply %s on_pool=%s in_p2p=%s\n", s.Market.Hex(), s.OnPool, s.InP2P)
		}

		for _, b := range borrows {
			if b.IsZero() {
				continue
			}

			cmd.Printf("borrow %s on_pool=%s in_p2p=%s\n", b.Market.Hex(), b.OnPool, b.InP2P)
		}
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
}
