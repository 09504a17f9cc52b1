// Package accrual refreshes the p2p exchange rate of every listed market once per block.
package accrual

import (
	"context"
	"fmt"
	"time"

	"p2plend/core"
	"p2plend/worker"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Updater markets and exchange rate refresh, served by the manager
type Updater interface {
	Markets() []*core.Market
	UpdateExchangeRate(ctx context.Context, market common.Address) (decimal.Decimal, error)
}

// Worker accrual worker
type Worker struct {
	worker.BaseJob
	Config       *core.Config
	Updater      Updater
	BlockService core.IBlockService

	lastBlock int64
}

// New new accrual worker ticking every block
func New(cfg *core.Config, updater Updater, blockService core.IBlockService) *Worker {
	job := Worker{
		Config:       cfg,
		Updater:      updater,
		BlockService: blockService,
		lastBlock:    -1,
	}

	l, err := time.LoadLocation(cfg.App.Location)
	if err != nil {
		l = time.Local
	}

	job.Cron = cron.New(cron.WithLocation(l))
	schedule := fmt.Sprintf("@every %ds", cfg.App.SecondsPerBlock)
	if _, err := job.Cron.AddFunc(schedule, job.Run); err != nil {
		panic(err)
	}

	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "accrual")
	ctx = logger.WithContext(ctx, log)

	currentBlock, err := w.BlockService.CurrentBlock(ctx)
	if err != nil {
		log.WithError(err).Errorln("block.CurrentBlock")
		return err
	}

	if currentBlock <= w.lastBlock {
		return nil
	}

	var failed int
	for _, market := range w.Updater.Markets() {
		if !market.IsListed {
			continue
		}

		rate, err := w.Updater.UpdateExchangeRate(ctx, market.Address)
		if err != nil {
			// 下一轮重试
			log.WithError(err).WithField("market", market.Symbol).Errorln("UpdateExchangeRate")
			failed++
			continue
		}

		log.WithField("market", market.Symbol).Debugf("block %d, exchange rate %s", currentBlock, rate)
	}

	if failed > 0 {
		return fmt.Errorf("accrual: %d markets not refreshed at block %d", failed, currentBlock)
	}

	w.lastBlock = currentBlock
	return nil
}
