// Package positions implements the overlay entry points: supply, borrow,
// repay, withdraw and liquidate. Every entry point refreshes the p2p exchange
// rate of the markets it touches before reading any p2p balance.
package positions

import (
	"context"
	"fmt"

	"p2plend/core"
	"p2plend/pkg/p2p"
	"p2plend/state"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type service struct {
	// ledger account of the overlay, the holder of every pool position
	self common.Address

	state          *state.State
	pool           core.IPool
	ledger         core.ILedger
	oracle         core.IOracle
	blockSrv       core.IBlockService
	marketService  core.IMarketService
	accountService core.IAccountService
	engine         core.IMatchingEngine
}

// New new positions manager
func New(
	self common.Address,
	st *state.State,
	pool core.IPool,
	ledger core.ILedger,
	oracle core.IOracle,
	blockSrv core.IBlockService,
	marketService core.IMarketService,
	accountService core.IAccountService,
	engine core.IMatchingEngine,
) core.IPositionsManager {
	return &service{
		self:           self,
		state:          st,
		pool:           pool,
		ledger:         ledger,
		oracle:         oracle,
		blockSrv:       blockSrv,
		marketService:  marketService,
		accountService: accountService,
		engine:         engine,
	}
}

// rates conversion factors of one market at the current block
type rates struct {
	p2p         decimal.Decimal
	pool        decimal.Decimal
	borrowIndex decimal.Decimal
}

// rates refreshes the p2p exchange rate and reads the pool rates
func (s *service) rates(ctx context.Context, address common.Address) (*rates, error) {
	p2pRate, err := s.marketService.UpdateExchangeRate(ctx, address)
	if err != nil {
		return nil, err
	}

	poolRate, err := s.pool.ExchangeRateCurrent(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("pool.ExchangeRateCurrent: %w", err)
	}

	borrowIndex, err := s.pool.BorrowIndex(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("pool.BorrowIndex: %w", err)
	}

	return &rates{p2p: p2pRate, pool: poolRate, borrowIndex: borrowIndex}, nil
}

// market loads a market and refreshes it, listed requires it to accept new positions
func (s *service) market(ctx context.Context, address common.Address, listed bool) (*core.Market, *rates, error) {
	m, ok := s.state.Market(address)
	if !ok || !m.IsCreated {
		return nil, nil, fmt.Errorf("market %s: %w", address.Hex(), core.ErrMarketNotFound)
	}

	if listed && !m.IsListed {
		return nil, nil, p2p.Require(false, "positions/market-not-listed", core.ErrMarketNotListed)
	}

	r, err := s.rates(ctx, address)
	if err != nil {
		return nil, nil, err
	}

	// reload, the refresh may have moved the exchange rate
	m, _ = s.state.Market(address)
	return m, r, nil
}

func (s *service) emit(ctx context.Context, event *core.Event) {
	event.TraceID = core.TraceIDFromContext(ctx)
	if block, err := s.blockSrv.CurrentBlock(ctx); err == nil {
		event.Block = block
	}

	s.state.Emit(event)
}

func supplyInUnderlying(b *core.SupplyBalance, r *rates) decimal.Decimal {
	return p2p.ToUnderlying(b.OnPool, r.pool).Add(p2p.ToUnderlying(b.InP2P, r.p2p))
}

func borrowInUnderlying(b *core.BorrowBalance, r *rates) decimal.Decimal {
	return p2p.ToUnderlying(b.OnPool, r.borrowIndex).Add(p2p.ToUnderlying(b.InP2P, r.p2p))
}

func requireAmount(amount, threshold decimal.Decimal) error {
	if err := p2p.Require(amount.IsPositive(), "positions/amount-zero", core.ErrInvalidAmount); err != nil {
		return err
	}

	return p2p.Require(amount.GreaterThanOrEqual(threshold), "positions/amount-below-threshold", core.ErrAmountBelowThreshold)
}
