package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"p2plend/handler"
	"p2plend/worker"
	"p2plend/worker/accrual"

	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "refresh exchange rates every block, optionally serving the read api",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		file, _ := cmd.Flags().GetString("file")
		scenario, err := loadScenario(file)
		if err != nil {
			log.WithError(err).Errorln("load scenario")
			return
		}

		database := provideDatabase()
		defer database.Close()

		blockService := provideBlockService()
		ov := provideOverlay(blockService, providePriceOracle(blockService), provideStateStore(database), nil)
		if err := ov.manager.Load(ctx); err != nil {
			log.WithError(err).Errorln("load state")
			return
		}

		if err := ov.setup(ctx, scenario); err != nil {
			log.WithError(err).Errorln("setup")
			return
		}

		jobs := []worker.IJob{
			accrual.New(provideConfig(), ov.manager, blockService),
		}

		for _, job := range jobs {
			if err := job.Start(); err != nil {
				log.WithError(err).Errorln("job.Start")
				return
			}
		}

		var server *http.Server
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			server = &http.Server{
				Addr:    fmt.Sprintf(":%d", port),
				Handler: handler.New(rootCmd.Version, ov.manager, blockService).Handler(),
			}

			go func() {
				log.Infoln("serve at", server.Addr)
				if err := server.ListenAndServe(); err != http.ErrServerClosed {
					log.WithError(err).Errorln("server aborted")
				}
			}()
		}

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		if server != nil {
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			if err := server.Shutdown(ctx); err != nil {
				log.WithError(err).Errorln("graceful shutdown server failed")
			}
			cancel()
		}

		for _, job := range jobs {
			_ = job.Stop()
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().String("file", "scenario.yaml", "market setup, the steps are ignored")
	workerCmd.Flags().IntP("port", "p", 0, "api server port, 0 disables the server")
}
