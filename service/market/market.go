package market

import (
	"context"
	"fmt"

	"p2plend/core"
	"p2plend/pkg/p2p"
	"p2plend/state"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

type service struct {
	state    *state.State
	pool     core.IPool
	blockSrv core.IBlockService
}

// New new market service
func New(
	st *state.State,
	pool core.IPool,
	blockSrv core.IBlockService,
) core.IMarketService {
	return &service{
		state:    st,
		pool:     pool,
		blockSrv: blockSrv,
	}
}

// UpdateExchangeRate compound the midrate into the p2p exchange rate, once per block
//
// exchange_rate = exchange_rate * (1 + (supply_rate + borrow_rate) / 2) ^ elapsed
func (s *service) UpdateExchangeRate(ctx context.Context, address common.Address) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithField("market", address.Hex())

	market, ok := s.state.Market(address)
	if !ok {
		return decimal.Zero, fmt.Errorf("market %s: %w", address.Hex(), core.ErrMarketNotFound)
	}

	curBlock, err := s.blockSrv.CurrentBlock(ctx)
	if err != nil {
		log.WithError(err).Errorln("blockSrv.CurrentBlock")
		return decimal.Zero, err
	}

	if err := p2p.Require(market.LastUpdateBlock <= curBlock, "market/block-in-future", core.ErrInvalidBlock); err != nil {
		log.WithError(err).Errorf("last update block %d, current %d", market.LastUpdateBlock, curBlock)
		return decimal.Zero, err
	}

	elapsed := curBlock - market.LastUpdateBlock
	if elapsed == 0 {
		return market.ExchangeRate, nil
	}

	supplyRate, err := s.pool.SupplyRatePerBlock(ctx, address)
	if err != nil {
		log.WithError(err).Errorln("pool.SupplyRatePerBlock")
		return decimal.Zero, fmt.Errorf("pool.SupplyRatePerBlock: %w", err)
	}

	borrowRate, err := s.pool.BorrowRatePerBlock(ctx, address)
	if err != nil {
		log.WithError(err).Errorln("pool.BorrowRatePerBlock")
		return decimal.Zero, fmt.Errorf("pool.BorrowRatePerBlock: %w", err)
	}

	market.BlockYield = p2p.Midrate(supplyRate, borrowRate)
	market.ExchangeRate = p2p.CompoundExchangeRate(market.ExchangeRate, market.BlockYield, elapsed)
	market.LastUpdateBlock = curBlock
	market.Version++
	s.state.PutMarket(market)

	s.state.Emit(&core.Event{
		TraceID: core.TraceIDFromContext(ctx),
		Type:    core.EventRateUpdated,
		Block:   curBlock,
		Market:  address,
		Amount:  market.BlockYield,
		Extra:   market.ExchangeRate,
	})

	log.Debugf("exchange rate %s, block yield %s, elapsed %d", market.ExchangeRate, market.BlockYield, elapsed)
	return market.ExchangeRate, nil
}
