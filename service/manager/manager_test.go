package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"p2plend/core"
	"p2plend/pkg/compound"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reentrant calls back into the manager from inside an entry point
type reentrant struct {
	core.IPositionsManager
	manager *Manager
}

func (r *reentrant) Supply(ctx context.Context, market, account common.Address, amount decimal.Decimal) error {
	return r.manager.Withdraw(ctx, market, account, account, amount)
}

// failing runs the real supply then fails
type failing struct {
	core.IPositionsManager
}

func (f *failing) Supply(ctx context.Context, market, account common.Address, amount decimal.Decimal) error {
	if err := f.IPositionsManager.Supply(ctx, market, account, amount); err != nil {
		return err
	}

	return errors.New("boom")
}

// blocking holds an entry point open until released
type blocking struct {
	core.IPositionsManager
	started chan struct{}
	release chan struct{}
}

func (b *blocking) Supply(ctx context.Context, market, account common.Address, amount decimal.Decimal) error {
	close(b.started)
	<-b.release
	return b.IPositionsManager.Supply(ctx, market, account, amount)
}

func TestConcurrentCallsWaitTheirTurn(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, compound.Market{}, nil)

	b := &blocking{
		IPositionsManager: e.positions,
		started:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	e.manager.SetPositionsManager(b)

	var (
		wg        sync.WaitGroup
		supplyErr error
		liqErr    error
		liquidity *core.Liquidity
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		supplyErr = e.manager.Supply(ctx, cDAI, alice, d(100))
	}()
	<-b.started

	done := make(chan struct{})
	go func() {
		defer close(done)
		liquidity, liqErr = e.manager.AccountLiquidity(ctx, bob)
	}()

	select {
	case <-done:
		t.Fatal("account liquidity returned while supply was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(b.release)
	wg.Wait()
	<-done

	require.Nil(t, supplyErr)
	require.Nil(t, liqErr)
	assert.True(t, liquidity.DebtValue.IsZero())
	assert.True(t, e.manager.SupplyBalance(cDAI, alice).OnPool.Equal(d(100)))
}

func TestReentrancy(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, compound.Market{}, nil)
	e.manager.SetPositionsManager(&reentrant{IPositionsManager: e.positions, manager: e.manager})

	err := e.manager.Supply(ctx, cDAI, alice, d(100))
	assert.True(t, errors.Is(err, core.ErrReentrancy))

	// the guard is released afterwards
	e.manager.SetPositionsManager(e.positions)
	require.Nil(t, e.manager.Supply(ctx, cDAI, alice, d(100)))
}

func TestFailedCallLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, compound.Market{}, nil)
	matchBobWithAlice(t, e)

	events := len(e.manager.Events())
	shares, _ := e.pool.BalanceOf(ctx, cDAI, overlay)
	cash, _ := e.pool.Cash(ctx, cDAI)
	registry := e.manager.Registry(cDAI, core.SuppliersOnPool)

	e.manager.SetPositionsManager(&failing{IPositionsManager: e.positions})
	err := e.manager.Supply(ctx, cDAI, carol, d(700))
	assert.EqualError(t, err, "boom")

	assert.True(t, e.balance(t, cDAI, carol).Equal(d(10000)))
	assert.True(t, e.manager.SupplyBalance(cDAI, carol).IsZero())
	assert.NotContains(t, hexes(e.manager.EnteredMarkets(carol)), cDAI.Hex())
	assert.Equal(t, registry, e.manager.Registry(cDAI, core.SuppliersOnPool))
	assert.Equal(t, events, len(e.manager.Events()))

	afterShares, _ := e.pool.BalanceOf(ctx, cDAI, overlay)
	afterCash, _ := e.pool.Cash(ctx, cDAI)
	assert.True(t, shares.Equal(afterShares))
	assert.True(t, cash.Equal(afterCash))

	e.manager.SetPositionsManager(e.positions)
	require.Nil(t, e.manager.Supply(ctx, cDAI, carol, d(700)))
	e.assertConservation(t)
}

func TestInvalidAmounts(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, compound.Market{}, nil)

	assert.True(t, errors.Is(e.manager.Supply(ctx, cDAI, alice, decimal.Zero), core.ErrInvalidAmount))
	assert.True(t, errors.Is(e.manager.Borrow(ctx, cDAI, alice, d(-1)), core.ErrInvalidAmount))
	assert.True(t, errors.Is(e.manager.Withdraw(ctx, cDAI, alice, alice, d(1)), core.ErrInsufficientBalance))
	assert.True(t, errors.Is(e.manager.Supply(ctx, common.HexToAddress("0xc9"), alice, d(1)), core.ErrMarketNotFound))

	// more than the ledger holds
	err := e.manager.Supply(ctx, cDAI, alice, d(20000))
	assert.True(t, errors.Is(err, core.ErrInsufficientBalance))
	assert.True(t, e.manager.SupplyBalance(cDAI, alice).IsZero())
}

func TestCreateMarket(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, compound.Market{}, nil)

	params := MarketParams{Address: cDAI, CollateralFactor: decimal.NewFromFloat(0.5)}
	assert.True(t, errors.Is(e.manager.CreateMarket(ctx, alice, params), core.ErrOperationForbidden))
	assert.True(t, errors.Is(e.manager.CreateMarket(ctx, admin, params), core.ErrMarketExists))

	cWETH := common.HexToAddress("0xc3")
	params.Address = cWETH
	params.CollateralFactor = decimal.NewFromFloat(1.5)
	assert.True(t, errors.Is(e.manager.CreateMarket(ctx, admin, params), core.ErrInvalidParameter))

	params.CollateralFactor = decimal.NewFromFloat(0.5)
	params.LiquidationIncentive = decimal.NewFromFloat(0.9)
	assert.True(t, errors.Is(e.manager.CreateMarket(ctx, admin, params), core.ErrInvalidParameter))

	// unknown to the pool
	params.LiquidationIncentive = decimal.Zero
	assert.NotNil(t, e.manager.CreateMarket(ctx, admin, params))
	_, err := e.manager.Market(cWETH)
	assert.True(t, errors.Is(err, core.ErrMarketNotFound))

	require.Nil(t, e.pool.AddMarket(ctx, cWETH, compound.Market{}))
	require.Nil(t, e.manager.CreateMarket(ctx, admin, params))

	m, err := e.manager.Market(cWETH)
	require.Nil(t, err)
	assert.True(t, m.IsListed)
	assert.True(t, m.ExchangeRate.Equal(decimal.New(1, 0)))
	assert.True(t, m.CloseFactor.Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, m.LiquidationIncentive.Equal(decimal.NewFromFloat(1.1)))
	assert.Equal(t, 50, m.MaxPopulation)
	assert.EqualValues(t, 100, m.LastUpdateBlock)
	assert.Len(t, e.manager.Markets(), 3)
}

func TestDelistedMarket(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, compound.Market{}, nil)

	require.Nil(t, e.manager.Supply(ctx, cUSDC, alice, d(1000)))
	require.Nil(t, e.manager.Borrow(ctx, cDAI, alice, d(100)))

	assert.True(t, errors.Is(e.manager.SetListed(ctx, bob, cUSDC, false), core.ErrOperationForbidden))
	require.Nil(t, e.manager.SetListed(ctx, admin, cUSDC, false))

	assert.True(t, errors.Is(e.manager.Supply(ctx, cUSDC, alice, d(10)), core.ErrMarketNotListed))
	assert.True(t, errors.Is(e.manager.Borrow(ctx, cUSDC, alice, d(10)), core.ErrMarketNotListed))

	// exits stay open
	require.Nil(t, e.manager.Withdraw(ctx, cUSDC, alice, alice, d(100)))
	require.Nil(t, e.manager.Repay(ctx, cDAI, alice, alice, d(100)))

	// collateral in a delisted market still counts
	liquidity, err := e.manager.AccountLiquidity(ctx, alice)
	require.Nil(t, err)
	assert.True(t, liquidity.CollateralValue.Equal(d(900)))

	require.Nil(t, e.manager.SetListed(ctx, admin, cUSDC, true))
	require.Nil(t, e.manager.Supply(ctx, cUSDC, alice, d(10)))
}

func TestThreshold(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, compound.Market{}, nil)

	assert.True(t, errors.Is(e.manager.SetThreshold(ctx, admin, cDAI, d(-1)), core.ErrInvalidParameter))
	require.Nil(t, e.manager.SetThreshold(ctx, admin, cDAI, d(10)))

	assert.True(t, errors.Is(e.manager.Supply(ctx, cDAI, alice, d(5)), core.ErrAmountBelowThreshold))
	require.Nil(t, e.manager.Supply(ctx, cDAI, alice, d(20)))

	assert.True(t, errors.Is(e.manager.Withdraw(ctx, cDAI, alice, alice, d(5)), core.ErrAmountBelowThreshold))
	require.Nil(t, e.manager.Withdraw(ctx, cDAI, alice, alice, d(12)))

	// 8 left, withdrawing all of it is fine
	require.Nil(t, e.manager.Withdraw(ctx, cDAI, alice, alice, d(8)))
	assert.True(t, e.manager.SupplyBalance(cDAI, alice).IsZero())
}

func TestMaxPopulation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, compound.Market{}, nil)

	assert.True(t, errors.Is(e.manager.SetMaxPopulation(ctx, admin, cDAI, 0), core.ErrInvalidParameter))
	require.Nil(t, e.manager.SetMaxPopulation(ctx, admin, cDAI, 2))

	require.Nil(t, e.manager.Supply(ctx, cDAI, alice, d(100)))
	require.Nil(t, e.manager.Supply(ctx, cDAI, bob, d(200)))
	require.Nil(t, e.manager.Supply(ctx, cDAI, carol, d(300)))

	entries := e.manager.Registry(cDAI, core.SuppliersOnPool)
	require.Len(t, entries, 3)
	assert.Equal(t, carol, entries[0].Account)
	assert.Equal(t, bob, entries[1].Account)
	assert.Equal(t, alice, entries[2].Account)
	assert.True(t, entries[2].Buffered)

	require.Nil(t, e.manager.Withdraw(ctx, cDAI, carol, carol, d(300)))

	entries = e.manager.Registry(cDAI, core.SuppliersOnPool)
	require.Len(t, entries, 2)
	assert.False(t, entries[1].Buffered)
	assert.Equal(t, alice, entries[1].Account)

	e.assertConservation(t)
}

// memStore keeps committed change sets in memory
type memStore struct {
	commits []*core.ChangeSet
	fail    bool
	dump    *core.ChangeSet
}

func (s *memStore) Commit(_ context.Context, cs *core.ChangeSet) error {
	if s.fail {
		return errors.New("store unavailable")
	}

	s.commits = append(s.commits, cs)
	return nil
}

func (s *memStore) Load(_ context.Context) (*core.ChangeSet, error) {
	if s.dump == nil {
		return &core.ChangeSet{}, nil
	}

	return s.dump, nil
}

func TestCommitAndLoad(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	e := newEnv(t, compound.Market{}, store)

	// one commit per market creation
	assert.Len(t, store.commits, 2)

	require.Nil(t, e.manager.Supply(ctx, cDAI, alice, d(500)))
	require.Len(t, store.commits, 3)

	cs := store.commits[2]
	require.Len(t, cs.Supplies, 1)
	assert.Equal(t, alice, cs.Supplies[0].Account)
	assert.True(t, cs.Supplies[0].OnPool.Equal(d(500)))
	assert.Len(t, cs.Entered, 1)

	// a failed commit reverts the call
	store.fail = true
	err := e.manager.Supply(ctx, cDAI, bob, d(500))
	assert.NotNil(t, err)
	assert.True(t, e.manager.SupplyBalance(cDAI, bob).IsZero())
	assert.True(t, e.balance(t, cDAI, bob).Equal(d(10000)))
	store.fail = false

	// reload the state of the last commit
	store.dump = e.state.Dump()
	require.Nil(t, e.manager.Supply(ctx, cDAI, carol, d(100)))
	require.Nil(t, e.manager.Load(ctx))

	assert.True(t, e.manager.SupplyBalance(cDAI, carol).IsZero())
	assert.True(t, e.manager.SupplyBalance(cDAI, alice).OnPool.Equal(d(500)))
	assert.Len(t, e.manager.Markets(), 2)
	assert.Len(t, e.manager.Registry(cDAI, core.SuppliersOnPool), 1)
}
