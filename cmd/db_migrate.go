package cmd

import (
	"github.com/fox-one/pkg/store/db"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// migrateCmd creates or updates the tables the overlay commits to:
// markets, supply/borrow positions, entered markets and registry entries
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "create or update the overlay state tables",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		if err := db.Migrate(database); err != nil {
			cmd.PrintErrln("migrate overlay state error:", err)
			return
		}

		markets, err := provideMarketStore(database).All(ctx)
		if err != nil {
			cmd.PrintErrln("list markets error:", err)
			return
		}

		entries, err := provideRegistryStore(database).All(ctx)
		if err != nil {
			cmd.PrintErrln("list registry entries error:", err)
			return
		}

		logrus.WithField("markets", len(markets)).
			WithField("registry_entries", len(entries)).
			Infoln("overlay state tables ready")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
