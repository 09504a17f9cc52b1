package matching

import (
	"context"
	"fmt"

	"p2plend/core"
	"p2plend/pkg/p2p"
	"p2plend/pkg/registry"
	"p2plend/state"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

type engine struct {
	state         *state.State
	pool          core.IPool
	maxIterations int
	metrics       *Metrics
}

// New new matching engine, maxIterations <= 0 means unbounded
func New(
	st *state.State,
	pool core.IPool,
	maxIterations int,
	metrics *Metrics,
) core.IMatchingEngine {
	return &engine{
		state:         st,
		pool:          pool,
		maxIterations: maxIterations,
		metrics:       metrics,
	}
}

func (e *engine) budget(steps int) bool {
	return e.maxIterations <= 0 || steps < e.maxIterations
}

func (e *engine) market(address common.Address) (*core.Market, error) {
	m, ok := e.state.Market(address)
	if !ok {
		return nil, fmt.Errorf("market %s: %w", address.Hex(), core.ErrMarketNotFound)
	}

	return m, nil
}

// MatchSuppliers moves pool-side suppliers to p2p and redeems what was matched from the pool.
// Suppliers owing anything anywhere, and except, are skipped.
func (e *engine) MatchSuppliers(ctx context.Context, address common.Address, amount decimal.Decimal, except common.Address) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithField("market", address.Hex())

	market, err := e.market(address)
	if err != nil {
		return amount, err
	}

	poolRate, err := e.pool.ExchangeRateCurrent(ctx, address)
	if err != nil {
		log.WithError(err).Errorln("pool.ExchangeRateCurrent")
		return amount, fmt.Errorf("pool.ExchangeRateCurrent: %w", err)
	}

	var (
		remaining = amount
		steps     int
	)

	// 每一步都从最高处重新读取，跳过已看过的账户
	seen := map[common.Address]bool{}
	next := func() (registry.Item, bool) {
		reg := e.state.Registry(address, core.SuppliersOnPool)
		account, value, ok := reg.Max()
		item := registry.Item{Account: account, Value: value}
		for ok && seen[item.Account] {
			item, ok = reg.Below(item)
		}
		return item, ok
	}

	for remaining.IsPositive() && e.budget(steps) {
		item, ok := next()
		if !ok {
			break
		}

		steps++
		seen[item.Account] = true
		if item.Account == except || e.state.HasDebt(item.Account) {
			continue
		}

		supply := e.state.Supply(address, item.Account)
		onPool, matched := p2p.Consume(supply.OnPool, poolRate, remaining)
		supply.OnPool = onPool
		supply.InP2P = supply.InP2P.Add(p2p.FromUnderlying(matched, market.ExchangeRate))
		e.state.SetSupply(market, supply, poolRate)
		remaining = remaining.Sub(matched)
	}

	matched := amount.Sub(remaining)
	if matched.IsPositive() {
		if err := e.pool.RedeemUnderlying(ctx, address, matched); err != nil {
			log.WithError(err).Errorln("pool.RedeemUnderlying")
			return amount, fmt.Errorf("pool.RedeemUnderlying: %w", err)
		}
	}

	e.metrics.observe(address, directionMatchSuppliers, matched, steps)
	log.Debugf("match suppliers %s, remaining %s, steps %d", amount, remaining, steps)
	return remaining, nil
}

// MatchBorrowers moves pool-side borrowers to p2p and repays what was matched to the pool
func (e *engine) MatchBorrowers(ctx context.Context, address common.Address, amount decimal.Decimal) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithField("market", address.Hex())

	market, err := e.market(address)
	if err != nil {
		return amount, err
	}

	borrowIndex, err := e.pool.BorrowIndex(ctx, address)
	if err != nil {
		log.WithError(err).Errorln("pool.BorrowIndex")
		return amount, fmt.Errorf("pool.BorrowIndex: %w", err)
	}

	var (
		remaining = amount
		steps     int
	)

	for remaining.IsPositive() && e.budget(steps) {
		account, _, ok := e.state.Registry(address, core.BorrowersOnPool).Max()
		if !ok {
			break
		}

		steps++
		borrow := e.state.Borrow(address, account)
		onPool, matched := p2p.Consume(borrow.OnPool, borrowIndex, remaining)
		borrow.OnPool = onPool
		borrow.InP2P = borrow.InP2P.Add(p2p.FromUnderlying(matched, market.ExchangeRate))
		e.state.SetBorrow(market, borrow, borrowIndex)
		remaining = remaining.Sub(matched)
	}

	matched := amount.Sub(remaining)
	if matched.IsPositive() {
		if err := e.pool.RepayBorrow(ctx, address, matched); err != nil {
			log.WithError(err).Errorln("pool.RepayBorrow")
			return amount, fmt.Errorf("pool.RepayBorrow: %w", err)
		}
	}

	e.metrics.observe(address, directionMatchBorrowers, matched, steps)
	log.Debugf("match borrowers %s, remaining %s, steps %d", amount, remaining, steps)
	return remaining, nil
}

// UnmatchSuppliers moves p2p suppliers back to the pool and mints amount on their behalf
func (e *engine) UnmatchSuppliers(ctx context.Context, address common.Address, amount decimal.Decimal) error {
	log := logger.FromContext(ctx).WithField("market", address.Hex())

	market, err := e.market(address)
	if err != nil {
		return err
	}

	poolRate, err := e.pool.ExchangeRateCurrent(ctx, address)
	if err != nil {
		log.WithError(err).Errorln("pool.ExchangeRateCurrent")
		return fmt.Errorf("pool.ExchangeRateCurrent: %w", err)
	}

	var (
		remaining = amount
		steps     int
	)

	for remaining.IsPositive() {
		account, _, ok := e.state.Registry(address, core.SuppliersInP2P).Max()
		if !ok || !e.budget(steps) {
			err := p2p.Require(false, "matching/unmatch-suppliers-incomplete", core.ErrUnmatchIncomplete)
			log.WithError(err).Errorf("unmatch suppliers %s, remaining %s, steps %d", amount, remaining, steps)
			return err
		}

		steps++
		supply := e.state.Supply(address, account)
		inP2P, unmatched := p2p.Consume(supply.InP2P, market.ExchangeRate, remaining)
		supply.InP2P = inP2P
		supply.OnPool = supply.OnPool.Add(p2p.FromUnderlying(unmatched, poolRate))
		e.state.SetSupply(market, supply, poolRate)
		remaining = remaining.Sub(unmatched)
	}

	if amount.IsPositive() {
		if err := e.pool.Mint(ctx, address, amount); err != nil {
			log.WithError(err).Errorln("pool.Mint")
			return fmt.Errorf("pool.Mint: %w", err)
		}
	}

	e.metrics.observe(address, directionUnmatchSuppliers, amount, steps)
	return nil
}

// UnmatchBorrowers moves p2p borrowers back to the pool and borrows amount on their behalf
func (e *engine) UnmatchBorrowers(ctx context.Context, address common.Address, amount decimal.Decimal) error {
	log := logger.FromContext(ctx).WithField("market", address.Hex())

	market, err := e.market(address)
	if err != nil {
		return err
	}

	borrowIndex, err := e.pool.BorrowIndex(ctx, address)
	if err != nil {
		log.WithError(err).Errorln("pool.BorrowIndex")
		return fmt.Errorf("pool.BorrowIndex: %w", err)
	}

	var (
		remaining = amount
		steps     int
	)

	for remaining.IsPositive() {
		account, _, ok := e.state.Registry(address, core.BorrowersInP2P).Max()
		if !ok || !e.budget(steps) {
			err := p2p.Require(false, "matching/unmatch-borrowers-incomplete", core.ErrUnmatchIncomplete)
			log.WithError(err).Errorf("unmatch borrowers %s, remaining %s, steps %d", amount, remaining, steps)
			return err
		}

		steps++
		borrow := e.state.Borrow(address, account)
		inP2P, unmatched := p2p.Consume(borrow.InP2P, market.ExchangeRate, remaining)
		borrow.InP2P = inP2P
		borrow.OnPool = borrow.OnPool.Add(p2p.FromUnderlying(unmatched, borrowIndex))
		e.state.SetBorrow(market, borrow, borrowIndex)
		remaining = remaining.Sub(unmatched)
	}

	if amount.IsPositive() {
		if err := e.pool.Borrow(ctx, address, amount); err != nil {
			log.WithError(err).Errorln("pool.Borrow")
			return fmt.Errorf("pool.Borrow: %w", err)
		}
	}

	e.metrics.observe(address, directionUnmatchBorrowers, amount, steps)
	return nil
}
