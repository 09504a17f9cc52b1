package cmd

import (
	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var marketsCmd = &cobra.Command{
	Use:     "markets [address]",
	Aliases: []string{"m"},
	Short:   "list committed markets",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		store := provideMarketStore(database)

		var markets []*core.Market
		if len(args) == 1 {
			if !common.IsHexAddress(args[0]) {
				cmd.PrintErrln("invalid address", args[0])
				return
			}

			m, err := store.Find(ctx, common.HexToAddress(args[0]))
			if err != nil {
				cmd.PrintErrln("find market error:", err)
				return
			}

			markets = append(markets, m)
		} else {
			all, err := store.All(ctx)
			if err != nil {
				cmd.PrintErrln("list markets error:", err)
				return
			}

			markets = all
		}

		for _, m := range markets {
			cmd.Printf("%s %s listed=%v cf=%s close=%s incentive=%s threshold=%s nmax=%d exchange_rate=%s block=%d\n",
				m.Symbol, m.Address.Hex(), m.IsListed, m.CollateralFactor, m.CloseFactor, m.LiquidationIncentive,
				m.Threshold, m.MaxPopulation, m.ExchangeRate, m.LastUpdateBlock)
		}
	},
}

func init() {
	rootCmd.AddCommand(marketsCmd)
}
