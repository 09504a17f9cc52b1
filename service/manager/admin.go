package manager

import (
	"context"
	"fmt"

	"p2plend/core"
	"p2plend/pkg/p2p"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

// MarketParams parameters of a new market, zero values fall back to the engine defaults
type MarketParams struct {
	Address              common.Address
	Symbol               string
	CollateralFactor     decimal.Decimal
	CloseFactor          decimal.Decimal
	LiquidationIncentive decimal.Decimal
	Threshold            decimal.Decimal
	MaxPopulation        int
}

func (m *Manager) requireManager(sender common.Address) error {
	return p2p.Require(m.config.IsManager(sender.Hex()), "manager/forbidden", core.ErrOperationForbidden)
}

func (m *Manager) emit(ctx context.Context, event *core.Event) {
	event.TraceID = core.TraceIDFromContext(ctx)
	if block, err := m.blockSrv.CurrentBlock(ctx); err == nil {
		event.Block = block
	}

	m.state.Emit(event)
}

func requireCollateralFactor(cf decimal.Decimal) error {
	return p2p.Require(cf.IsPositive() && cf.LessThanOrEqual(p2p.One), "manager/invalid-collateral-factor", core.ErrInvalidParameter)
}

// CreateMarket creates and lists a market
func (m *Manager) CreateMarket(ctx context.Context, sender common.Address, params MarketParams) error {
	return m.execute(ctx, "create_market", func(ctx context.Context) error {
		log := logger.FromContext(ctx).WithField("market", params.Address.Hex())

		if err := m.requireManager(sender); err != nil {
			return err
		}

		if _, ok := m.state.Market(params.Address); ok {
			return fmt.Errorf("market %s: %w", params.Address.Hex(), core.ErrMarketExists)
		}

		if err := requireCollateralFactor(params.CollateralFactor); err != nil {
			return err
		}

		market := &core.Market{
			Address:              params.Address,
			Symbol:               params.Symbol,
			IsCreated:            true,
			IsListed:             true,
			CollateralFactor:     params.CollateralFactor,
			CloseFactor:          params.CloseFactor,
			LiquidationIncentive: params.LiquidationIncentive,
			ExchangeRate:         p2p.One,
			Threshold:            params.Threshold,
			MaxPopulation:        params.MaxPopulation,
		}

		if !market.CloseFactor.IsPositive() {
			market.CloseFactor = m.config.Engine.CloseFactor
		}

		if !market.LiquidationIncentive.IsPositive() {
			market.LiquidationIncentive = m.config.Engine.LiquidationIncentive
		}

		if market.MaxPopulation <= 0 {
			market.MaxPopulation = m.config.Engine.DefaultMaxPopulation
		}

		if err := p2p.Require(market.CloseFactor.IsPositive() && market.CloseFactor.LessThanOrEqual(p2p.One), "manager/invalid-close-factor", core.ErrInvalidParameter); err != nil {
			return err
		}

		if err := p2p.Require(market.LiquidationIncentive.GreaterThan(p2p.One), "manager/invalid-liquidation-incentive", core.ErrInvalidParameter); err != nil {
			return err
		}

		if err := p2p.Require(!market.Threshold.IsNegative(), "manager/invalid-threshold", core.ErrInvalidParameter); err != nil {
			return err
		}

		block, err := m.blockSrv.CurrentBlock(ctx)
		if err != nil {
			return err
		}

		market.LastUpdateBlock = block
		m.state.PutMarket(market)
		m.state.SetMaxPopulation(market.Address, market.MaxPopulation)

		// the first refresh reads the pool rates and fails on a market the pool does not know
		if _, err := m.marketService.UpdateExchangeRate(ctx, market.Address); err != nil {
			return err
		}

		m.emit(ctx, &core.Event{
			Type:   core.EventMarketCreated,
			Market: market.Address,
			Extra:  market.CollateralFactor,
		})

		log.Infof("market %s created", market.Symbol)
		return nil
	})
}

// update loads market, applies fn and stores it
func (m *Manager) update(ctx context.Context, op string, sender, address common.Address, fn func(ctx context.Context, market *core.Market) error) error {
	return m.execute(ctx, op, func(ctx context.Context) error {
		if err := m.requireManager(sender); err != nil {
			return err
		}

		market, ok := m.state.Market(address)
		if !ok {
			return fmt.Errorf("market %s: %w", address.Hex(), core.ErrMarketNotFound)
		}

		if err := fn(ctx, market); err != nil {
			return err
		}

		market.Version++
		m.state.PutMarket(market)
		return nil
	})
}

// SetListed lists or delists market, a delisted market only accepts repay, withdraw and liquidate
func (m *Manager) SetListed(ctx context.Context, sender, address common.Address, listed bool) error {
	return m.update(ctx, "set_listed", sender, address, func(ctx context.Context, market *core.Market) error {
		market.IsListed = listed

		typ := core.EventMarketDelisted
		if listed {
			typ = core.EventMarketListed
		}

		m.emit(ctx, &core.Event{Type: typ, Market: address})
		return nil
	})
}

// SetThreshold sets the minimum position size of market
func (m *Manager) SetThreshold(ctx context.Context, sender, address common.Address, threshold decimal.Decimal) error {
	return m.update(ctx, "set_threshold", sender, address, func(ctx context.Context, market *core.Market) error {
		if err := p2p.Require(!threshold.IsNegative(), "manager/invalid-threshold", core.ErrInvalidParameter); err != nil {
			return err
		}

		market.Threshold = threshold
		m.emit(ctx, &core.Event{Type: core.EventParameterUpdated, Market: address, Amount: threshold})
		return nil
	})
}

// SetMaxPopulation sets the registry population cap of market
func (m *Manager) SetMaxPopulation(ctx context.Context, sender, address common.Address, maxPopulation int) error {
	return m.update(ctx, "set_max_population", sender, address, func(ctx context.Context, market *core.Market) error {
		if err := p2p.Require(maxPopulation > 0, "manager/invalid-max-population", core.ErrInvalidParameter); err != nil {
			return err
		}

		market.MaxPopulation = maxPopulation
		m.state.SetMaxPopulation(address, maxPopulation)
		m.emit(ctx, &core.Event{Type: core.EventParameterUpdated, Market: address, Amount: decimal.NewFromInt(int64(maxPopulation))})
		return nil
	})
}

// SetCollateralFactor sets the collateral factor of market
func (m *Manager) SetCollateralFactor(ctx context.Context, sender, address common.Address, cf decimal.Decimal) error {
	return m.update(ctx, "set_collateral_factor", sender, address, func(ctx context.Context, market *core.Market) error {
		if err := requireCollateralFactor(cf); err != nil {
			return err
		}

		market.CollateralFactor = cf
		m.emit(ctx, &core.Event{Type: core.EventParameterUpdated, Market: address, Amount: cf})
		return nil
	})
}
