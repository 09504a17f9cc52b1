package manager

import (
	"context"
	"testing"

	"p2plend/core"
	"p2plend/internal/block"
	"p2plend/internal/ledger"
	"p2plend/internal/oracle"
	"p2plend/internal/pool"
	"p2plend/pkg/compound"
	"p2plend/service/account"
	"p2plend/service/market"
	"p2plend/service/matching"
	"p2plend/service/positions"
	"p2plend/state"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cUSDC = common.HexToAddress("0xc1")
	cDAI  = common.HexToAddress("0xc2")

	overlay  = common.HexToAddress("0xee")
	poolAddr = common.HexToAddress("0xff")
	admin    = common.HexToAddress("0xad")
	whale    = common.HexToAddress("0x99")

	alice = common.HexToAddress("0x01")
	bob   = common.HexToAddress("0x02")
	carol = common.HexToAddress("0x03")

	dust = decimal.New(1, -15)
)

type env struct {
	manager   *Manager
	state     *state.State
	pool      *pool.Pool
	ledger    *ledger.Ledger
	oracle    *oracle.Oracle
	blocks    *block.Manual
	positions core.IPositionsManager
}

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func newConfig() *core.Config {
	return &core.Config{
		Managers: []string{admin.Hex()},
		Engine: core.Engine{
			MaxIterations:        100,
			DefaultMaxPopulation: 50,
			CloseFactor:          decimal.NewFromFloat(0.5),
			LiquidationIncentive: decimal.NewFromFloat(1.1),
		},
	}
}

// newEnv two listed markets, cf 0.75, price 1, with rate model on the pool side
func newEnv(t *testing.T, model compound.Market, store core.IStateStore) *env {
	ctx := context.Background()
	cfg := newConfig()

	blocks := block.NewManual(100)
	l := ledger.New()
	p := pool.New(l, blocks, poolAddr, overlay)
	o := oracle.New()
	st := state.New()

	marketSrv := market.New(st, p, blocks)
	accountSrv := account.New(st, p, o, marketSrv)
	engine := matching.New(st, p, cfg.Engine.MaxIterations, nil)
	positionsSrv := positions.New(overlay, st, p, l, o, blocks, marketSrv, accountSrv, engine)
	mgr := New(cfg, st, blocks, marketSrv, accountSrv, positionsSrv, store, p, l)

	for _, address := range []common.Address{cUSDC, cDAI} {
		require.Nil(t, p.AddMarket(ctx, address, model))
		o.SetPrice(address, decimal.New(1, 0))

		// liquidity supplied straight to the pool
		l.Mint(address, whale, d(100000))
		require.Nil(t, p.SupplyFrom(ctx, address, whale, d(100000)))

		require.Nil(t, mgr.CreateMarket(ctx, admin, MarketParams{
			Address:          address,
			Symbol:           address.Hex()[:6],
			CollateralFactor: decimal.NewFromFloat(0.75),
		}))

		for _, account := range []common.Address{alice, bob, carol} {
			l.Mint(address, account, d(10000))
		}
	}

	p.Finalize()
	l.Finalize()

	return &env{
		manager:   mgr,
		state:     st,
		pool:      p,
		ledger:    l,
		oracle:    o,
		blocks:    blocks,
		positions: positionsSrv,
	}
}

func (e *env) balance(t *testing.T, asset, owner common.Address) decimal.Decimal {
	b, err := e.ledger.BalanceOf(context.Background(), asset, owner)
	require.Nil(t, err)
	return b
}

func assertNear(t *testing.T, expected, actual decimal.Decimal, name string) {
	t.Helper()
	assert.True(t, expected.Sub(actual).Abs().LessThanOrEqual(dust), "%s: expected %s, got %s", name, expected, actual)
}

// assertConservation overlay pool shares match the pool-side supply, p2p supply matches p2p debt
func (e *env) assertConservation(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	for _, m := range e.manager.Markets() {
		shares, err := e.pool.BalanceOf(ctx, m.Address, overlay)
		require.Nil(t, err)

		onPool, supplyP2P, borrowP2P := decimal.Zero, decimal.Zero, decimal.Zero
		for _, s := range e.manager.Supplies(m.Address) {
			onPool = onPool.Add(s.OnPool)
			supplyP2P = supplyP2P.Add(s.InP2P)
		}

		for _, b := range e.manager.Borrows(m.Address) {
			borrowP2P = borrowP2P.Add(b.InP2P)
		}

		assertNear(t, shares, onPool, "pool shares of "+m.Symbol)
		assertNear(t, supplyP2P, borrowP2P, "p2p units of "+m.Symbol)
	}
}

// assertLiquidationInvariant a pool-side borrower has no p2p supply anywhere
func (e *env) assertLiquidationInvariant(t *testing.T) {
	t.Helper()

	markets := e.manager.Markets()
	for _, m := range markets {
		for _, b := range e.manager.Borrows(m.Address) {
			if !b.OnPool.IsPositive() {
				continue
			}

			for _, other := range markets {
				s := e.manager.SupplyBalance(other.Address, b.Account)
				assert.True(t, s.InP2P.IsZero(), "%s borrows on pool and supplies p2p in %s", b.Account.Hex(), other.Symbol)
			}
		}
	}
}
