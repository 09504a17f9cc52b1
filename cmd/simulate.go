package cmd

import (
	"p2plend/internal/block"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/yiplee/structs"
)

var simulateCmd = &cobra.Command{
	Use:     "simulate",
	Aliases: []string{"sim"},
	Short:   "replay a yaml scenario against a simulated pool",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		file, _ := cmd.Flags().GetString("file")
		scenario, err := loadScenario(file)
		if err != nil {
			cmd.PrintErrln("load scenario error:", err)
			return
		}

		if !cfg.IsManager(common.HexToAddress(scenario.Admin).Hex()) {
			cfg.Managers = append(cfg.Managers, common.HexToAddress(scenario.Admin).Hex())
		}

		reg := prometheus.NewRegistry()
		blocks := block.NewManual(scenario.Block)

		var ov *overlay
		if persist, _ := cmd.Flags().GetBool("persist"); persist {
			database := provideDatabase()
			defer database.Close()

			ov = provideOverlay(blocks, nil, provideStateStore(database), reg)
		} else {
			ov = provideOverlay(blocks, nil, nil, reg)
		}

		if err := ov.setup(ctx, scenario); err != nil {
			cmd.PrintErrln("setup error:", err)
			return
		}

		if err := ov.run(ctx, scenario); err != nil {
			cmd.PrintErrln("simulate error:", err)
			return
		}

		for _, line := range ov.report(ctx) {
			cmd.Println(line)
		}

		if events, _ := cmd.Flags().GetBool("events"); events {
			for _, event := range ov.manager.Events() {
				cmd.Println(structs.Map(event.View()))
			}
		}

		families, err := reg.Gather()
		if err != nil {
			log.WithError(err).Errorln("reg.Gather")
			return
		}

		for _, family := range families {
			for _, metric := range family.GetMetric() {
				labels := make(map[string]string)
				for _, pair := range metric.GetLabel() {
					labels[pair.GetName()] = pair.GetValue()
				}

				cmd.Println(family.GetName(), labels, metric.GetCounter().GetValue())
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().String("file", "scenario.yaml", "scenario file")
	simulateCmd.Flags().Bool("persist", false, "commit every call to the database")
	simulateCmd.Flags().Bool("events", false, "print published events")
}
