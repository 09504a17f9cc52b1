// Package manager is the entry component of the overlay. It guards every
// state-mutating call against reentrancy, runs it all-or-nothing over the
// state and the external collaborators, and forwards position accounting to
// a swappable core.IPositionsManager.
package manager

import (
	"context"
	"sync"

	"p2plend/core"
	"p2plend/pkg/id"
	"p2plend/pkg/p2p"
	"p2plend/state"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yiplee/structs"
)

// Manager markets manager
type Manager struct {
	config        *core.Config
	state         *state.State
	blockSrv      core.IBlockService
	marketService core.IMarketService
	accountSrv    core.IAccountService
	positions     core.IPositionsManager
	// optional, committed state is not persisted when nil
	store     core.IStateStore
	reverters []core.Reverter

	// 写操作独占, 视图共享
	lock sync.RWMutex

	mux     sync.RWMutex
	history []*core.Event
}

// New new markets manager, reverters are the collaborators rolled back with the state
func New(
	cfg *core.Config,
	st *state.State,
	blockSrv core.IBlockService,
	marketService core.IMarketService,
	accountSrv core.IAccountService,
	positions core.IPositionsManager,
	store core.IStateStore,
	reverters ...core.Reverter,
) *Manager {
	return &Manager{
		config:        cfg,
		state:         st,
		blockSrv:      blockSrv,
		marketService: marketService,
		accountSrv:    accountSrv,
		positions:     positions,
		store:         store,
		reverters:     reverters,
	}
}

var _ core.IPositionsManager = (*Manager)(nil)

// SetPositionsManager swaps the position accounting logic
func (m *Manager) SetPositionsManager(positions core.IPositionsManager) {
	m.positions = positions
}

// Load replaces the in-memory state with the committed one
func (m *Manager) Load(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	cs, err := m.store.Load(ctx)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("store.Load")
		return err
	}

	m.lock.Lock()
	m.state.Load(cs)
	m.lock.Unlock()
	return nil
}

type enteredKey struct{}

// execute runs fn as one atomic entry point. Top-level calls wait for each
// other; a call made with the context handed to fn is nested and fails.
func (m *Manager) execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if entered, _ := ctx.Value(enteredKey{}).(bool); entered {
		return p2p.Require(false, "manager/reentrancy", core.ErrReentrancy)
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	ctx = context.WithValue(ctx, enteredKey{}, true)

	traceID := core.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = id.GenTraceID()
		ctx = core.WithTraceID(ctx, traceID)
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"op":    op,
		"trace": traceID,
	})
	ctx = logger.WithContext(ctx, log)

	stateID := m.state.Snapshot()
	ids := make([]int, len(m.reverters))
	for idx, r := range m.reverters {
		ids[idx] = r.Snapshot()
	}

	revert := func() {
		m.state.RevertToSnapshot(stateID)
		m.state.Finalize()
		for idx, r := range m.reverters {
			r.RevertToSnapshot(ids[idx])
			r.Finalize()
		}
	}

	if err := fn(ctx); err != nil {
		log.WithError(err).Debugln("reverted")
		revert()
		return err
	}

	events := m.state.PendingEvents()
	if cs := m.state.Changes(); m.store != nil && !cs.IsEmpty() {
		if err := m.store.Commit(ctx, cs); err != nil {
			log.WithError(err).Errorln("store.Commit")
			revert()
			return err
		}
	}

	m.state.Finalize()
	for _, r := range m.reverters {
		r.Finalize()
	}

	m.publish(ctx, events)
	return nil
}

func (m *Manager) publish(ctx context.Context, events []*core.Event) {
	log := logger.FromContext(ctx)
	for _, event := range events {
		log.WithFields(logrus.Fields(structs.Map(event.View()))).Debugln("event")
	}

	m.mux.Lock()
	m.history = append(m.history, events...)
	m.mux.Unlock()
}

// Supply see core.IPositionsManager
func (m *Manager) Supply(ctx context.Context, market, account common.Address, amount decimal.Decimal) error {
	return m.execute(ctx, "supply", func(ctx context.Context) error {
		return m.positions.Supply(ctx, market, account, amount)
	})
}

// Borrow see core.IPositionsManager
func (m *Manager) Borrow(ctx context.Context, market, account common.Address, amount decimal.Decimal) error {
	return m.execute(ctx, "borrow", func(ctx context.Context) error {
		return m.positions.Borrow(ctx, market, account, amount)
	})
}

// Repay see core.IPositionsManager
func (m *Manager) Repay(ctx context.Context, market, payer, onBehalf common.Address, amount decimal.Decimal) error {
	return m.execute(ctx, "repay", func(ctx context.Context) error {
		return m.positions.Repay(ctx, market, payer, onBehalf, amount)
	})
}

// Withdraw see core.IPositionsManager
func (m *Manager) Withdraw(ctx context.Context, market, holder, receiver common.Address, amount decimal.Decimal) error {
	return m.execute(ctx, "withdraw", func(ctx context.Context) error {
		return m.positions.Withdraw(ctx, market, holder, receiver, amount)
	})
}

// Liquidate see core.IPositionsManager
func (m *Manager) Liquidate(ctx context.Context, borrowedMarket, collateralMarket, liquidator, borrower common.Address, amount decimal.Decimal) error {
	return m.execute(ctx, "liquidate", func(ctx context.Context) error {
		return m.positions.Liquidate(ctx, borrowedMarket, collateralMarket, liquidator, borrower, amount)
	})
}

// UpdateExchangeRate refreshes the p2p exchange rate of market, anyone may call it
func (m *Manager) UpdateExchangeRate(ctx context.Context, market common.Address) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := m.execute(ctx, "update_exchange_rate", func(ctx context.Context) error {
		r, err := m.marketService.UpdateExchangeRate(ctx, market)
		rate = r
		return err
	})

	return rate, err
}

// AccountLiquidity debt, borrowing capacity and collateral of account at the current block
func (m *Manager) AccountLiquidity(ctx context.Context, account common.Address) (*core.Liquidity, error) {
	var liquidity *core.Liquidity
	err := m.execute(ctx, "account_liquidity", func(ctx context.Context) error {
		l, err := m.accountSrv.ComputeBalances(ctx, account, common.Address{}, decimal.Zero, decimal.Zero)
		liquidity = l
		return err
	})

	return liquidity, err
}
