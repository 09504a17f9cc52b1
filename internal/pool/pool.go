// Package pool is an in-memory Compound-like money market. It serves one
// caller, the overlay, whose positions it holds; other accounts may seed
// liquidity through SupplyFrom and BorrowTo.
package pool

import (
	"context"
	"fmt"

	"p2plend/core"
	"p2plend/pkg/compound"
	"p2plend/pkg/p2p"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type accountKey struct {
	Market  common.Address
	Account common.Address
}

type debt struct {
	Principal     decimal.Decimal
	InterestIndex decimal.Decimal
}

// Pool simulated money market, not safe for concurrent use
type Pool struct {
	ledger core.ILedger
	blocks core.IBlockService
	// ledger account holding the pool cash
	address common.Address
	caller  common.Address

	markets map[common.Address]*compound.Market
	shares  map[accountKey]decimal.Decimal
	debts   map[accountKey]debt
	journal []func()
}

// New pool trading with caller, its cash is kept under address in the ledger
func New(ledger core.ILedger, blocks core.IBlockService, address, caller common.Address) *Pool {
	return &Pool{
		ledger:  ledger,
		blocks:  blocks,
		address: address,
		caller:  caller,
		markets: make(map[common.Address]*compound.Market),
		shares:  make(map[accountKey]decimal.Decimal),
		debts:   make(map[accountKey]debt),
	}
}

var _ core.IPool = (*Pool)(nil)
var _ core.Reverter = (*Pool)(nil)

// Address ledger account of the pool
func (p *Pool) Address() common.Address {
	return p.address
}

// AddMarket lists a pool market, the underlying asset shares the market address
func (p *Pool) AddMarket(ctx context.Context, address common.Address, market compound.Market) error {
	if _, ok := p.markets[address]; ok {
		return fmt.Errorf("pool: market %s: %w", address.Hex(), core.ErrMarketExists)
	}

	block, err := p.blocks.CurrentBlock(ctx)
	if err != nil {
		return err
	}

	m := market
	m.BlockNumber = block
	if !m.BorrowIndex.IsPositive() {
		m.BorrowIndex = decimal.New(1, 0)
	}

	if !m.InitExchangeRate.IsPositive() {
		m.InitExchangeRate = decimal.New(1, 0)
	}

	p.markets[address] = &m
	p.journal = append(p.journal, func() {
		delete(p.markets, address)
	})

	return nil
}

// Market copy of a pool market
func (p *Pool) Market(address common.Address) (compound.Market, bool) {
	m, ok := p.markets[address]
	if !ok {
		return compound.Market{}, false
	}

	return *m, true
}

// market accrues interest up to the current block and returns a writable market
func (p *Pool) market(ctx context.Context, address common.Address) (*compound.Market, error) {
	m, ok := p.markets[address]
	if !ok {
		return nil, fmt.Errorf("pool: market %s: %w", address.Hex(), core.ErrMarketNotFound)
	}

	block, err := p.blocks.CurrentBlock(ctx)
	if err != nil {
		return nil, err
	}

	prev := *m
	p.journal = append(p.journal, func() {
		*m = prev
	})

	compound.AccrueInterest(m, block)
	return m, nil
}

func (p *Pool) setShares(key accountKey, value decimal.Decimal) {
	prev, existed := p.shares[key]
	p.shares[key] = value
	p.journal = append(p.journal, func() {
		if existed {
			p.shares[key] = prev
			return
		}

		delete(p.shares, key)
	})
}

func (p *Pool) setDebt(key accountKey, value debt) {
	prev, existed := p.debts[key]
	p.debts[key] = value
	p.journal = append(p.journal, func() {
		if existed {
			p.debts[key] = prev
			return
		}

		delete(p.debts, key)
	})
}

// SupplyRatePerBlock current supply rate per block
func (p *Pool) SupplyRatePerBlock(_ context.Context, market common.Address) (decimal.Decimal, error) {
	m, ok := p.markets[market]
	if !ok {
		return decimal.Zero, fmt.Errorf("pool: market %s: %w", market.Hex(), core.ErrMarketNotFound)
	}

	return m.CurSupplyRatePerBlock(), nil
}

// BorrowRatePerBlock current borrow rate per block
func (p *Pool) BorrowRatePerBlock(_ context.Context, market common.Address) (decimal.Decimal, error) {
	m, ok := p.markets[market]
	if !ok {
		return decimal.Zero, fmt.Errorf("pool: market %s: %w", market.Hex(), core.ErrMarketNotFound)
	}

	return m.CurBorrowRatePerBlock(), nil
}

// ExchangeRateCurrent accrues and returns the share exchange rate
func (p *Pool) ExchangeRateCurrent(ctx context.Context, market common.Address) (decimal.Decimal, error) {
	m, err := p.market(ctx, market)
	if err != nil {
		return decimal.Zero, err
	}

	return m.CurExchangeRate(), nil
}

// BorrowIndex accrues and returns the borrow index
func (p *Pool) BorrowIndex(ctx context.Context, market common.Address) (decimal.Decimal, error) {
	m, err := p.market(ctx, market)
	if err != nil {
		return decimal.Zero, err
	}

	return m.BorrowIndex, nil
}

// Mint supplies amount of underlying for the caller
func (p *Pool) Mint(ctx context.Context, market common.Address, amount decimal.Decimal) error {
	return p.SupplyFrom(ctx, market, p.caller, amount)
}

// SupplyFrom supplies amount of underlying held by from
func (p *Pool) SupplyFrom(ctx context.Context, market, from common.Address, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("pool: mint %s: %w", amount, core.ErrInvalidAmount)
	}

	m, err := p.market(ctx, market)
	if err != nil {
		return err
	}

	shares := p2p.FromUnderlying(amount, m.CurExchangeRate())
	if err := p.ledger.Transfer(ctx, market, from, p.address, amount); err != nil {
		return err
	}

	m.TotalCash = m.TotalCash.Add(amount)
	m.CTokens = m.CTokens.Add(shares)
	key := accountKey{market, from}
	p.setShares(key, p.shares[key].Add(shares))
	return nil
}

// Redeem burns shares of the caller for underlying
func (p *Pool) Redeem(ctx context.Context, market common.Address, shares decimal.Decimal) error {
	m, err := p.market(ctx, market)
	if err != nil {
		return err
	}

	return p.redeem(ctx, m, market, shares, p2p.ToUnderlying(shares, m.CurExchangeRate()))
}

// RedeemUnderlying burns the shares worth amount of underlying
func (p *Pool) RedeemUnderlying(ctx context.Context, market common.Address, amount decimal.Decimal) error {
	m, err := p.market(ctx, market)
	if err != nil {
		return err
	}

	return p.redeem(ctx, m, market, p2p.FromUnderlying(amount, m.CurExchangeRate()), amount)
}

func (p *Pool) redeem(ctx context.Context, m *compound.Market, market common.Address, shares, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("pool: redeem %s: %w", amount, core.ErrInvalidAmount)
	}

	key := accountKey{market, p.caller}
	balance := p.shares[key]
	if balance.LessThan(shares) {
		return fmt.Errorf("pool: redeem %s shares, has %s: %w", shares, balance, core.ErrPoolFailure)
	}

	if !compound.RedeemAllowed(amount, m) {
		return fmt.Errorf("pool: redeem %s, insufficient cash: %w", amount, core.ErrPoolFailure)
	}

	if err := p.ledger.Transfer(ctx, market, p.address, p.caller, amount); err != nil {
		return err
	}

	m.TotalCash = m.TotalCash.Sub(amount)
	m.CTokens = m.CTokens.Sub(shares)
	p.setShares(key, balance.Sub(shares))
	return nil
}

// Borrow lends amount of underlying to the caller
func (p *Pool) Borrow(ctx context.Context, market common.Address, amount decimal.Decimal) error {
	return p.BorrowTo(ctx, market, p.caller, amount)
}

// BorrowTo lends amount of underlying to account
func (p *Pool) BorrowTo(ctx context.Context, market, account common.Address, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("pool: borrow %s: %w", amount, core.ErrInvalidAmount)
	}

	m, err := p.market(ctx, market)
	if err != nil {
		return err
	}

	if !compound.RedeemAllowed(amount, m) {
		return fmt.Errorf("pool: borrow %s, insufficient cash: %w", amount, core.ErrPoolFailure)
	}

	if err := p.ledger.Transfer(ctx, market, p.address, account, amount); err != nil {
		return err
	}

	key := accountKey{market, account}
	d := p.debts[key]
	owed := compound.BorrowBalance(d.Principal, d.InterestIndex, m.BorrowIndex)
	p.setDebt(key, debt{Principal: owed.Add(amount), InterestIndex: m.BorrowIndex})

	m.TotalCash = m.TotalCash.Sub(amount)
	m.TotalBorrows = m.TotalBorrows.Add(amount)
	return nil
}

// RepayBorrow repays up to amount of the caller's debt, the excess stays with the caller
func (p *Pool) RepayBorrow(ctx context.Context, market common.Address, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("pool: repay %s: %w", amount, core.ErrInvalidAmount)
	}

	m, err := p.market(ctx, market)
	if err != nil {
		return err
	}

	key := accountKey{market, p.caller}
	d := p.debts[key]
	owed := compound.BorrowBalance(d.Principal, d.InterestIndex, m.BorrowIndex)
	if !owed.IsPositive() {
		return fmt.Errorf("pool: repay %s, nothing borrowed: %w", amount, core.ErrPoolFailure)
	}

	if amount.GreaterThan(owed) {
		amount = owed
	}

	if err := p.ledger.Transfer(ctx, market, p.caller, p.address, amount); err != nil {
		return err
	}

	p.setDebt(key, debt{Principal: owed.Sub(amount), InterestIndex: m.BorrowIndex})
	m.TotalCash = m.TotalCash.Add(amount)
	m.TotalBorrows = p2p.Sub(m.TotalBorrows, amount)
	return nil
}

// BalanceOf share balance of owner
func (p *Pool) BalanceOf(_ context.Context, market, owner common.Address) (decimal.Decimal, error) {
	return p.shares[accountKey{market, owner}], nil
}

// BorrowBalanceOf debt of owner in underlying at the last accrual
func (p *Pool) BorrowBalanceOf(_ context.Context, market, owner common.Address) (decimal.Decimal, error) {
	m, ok := p.markets[market]
	if !ok {
		return decimal.Zero, fmt.Errorf("pool: market %s: %w", market.Hex(), core.ErrMarketNotFound)
	}

	d := p.debts[accountKey{market, owner}]
	if !d.Principal.IsPositive() {
		return decimal.Zero, nil
	}

	return compound.BorrowBalance(d.Principal, d.InterestIndex, m.BorrowIndex), nil
}

// Cash underlying held by the pool
func (p *Pool) Cash(_ context.Context, market common.Address) (decimal.Decimal, error) {
	m, ok := p.markets[market]
	if !ok {
		return decimal.Zero, fmt.Errorf("pool: market %s: %w", market.Hex(), core.ErrMarketNotFound)
	}

	return m.TotalCash.Sub(m.Reserves), nil
}

// Snapshot marks the undo log
func (p *Pool) Snapshot() int {
	return len(p.journal)
}

// RevertToSnapshot undoes every change made after the snapshot id
func (p *Pool) RevertToSnapshot(id int) {
	for i := len(p.journal) - 1; i >= id; i-- {
		p.journal[i]()
	}

	p.journal = p.journal[:id]
}

// Finalize drops the undo log
func (p *Pool) Finalize() {
	p.journal = nil
}
