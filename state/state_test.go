package state

import (
	"testing"

	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	marketA = common.HexToAddress("0xa0")
	marketB = common.HexToAddress("0xb0")
	alice   = common.HexToAddress("0x01")
	bob     = common.HexToAddress("0x02")
)

func newMarket(address common.Address) *core.Market {
	return &core.Market{
		Address:       address,
		IsCreated:     true,
		IsListed:      true,
		ExchangeRate:  decimal.New(1, 0),
		MaxPopulation: 2,
	}
}

func TestRevertRestoresEverything(t *testing.T) {
	s := New()
	s.PutMarket(newMarket(marketA))
	s.PutSupply(&core.SupplyBalance{Market: marketA, Account: alice, OnPool: decimal.NewFromInt(10)})
	s.UpdateRegistry(marketA, core.SuppliersOnPool, alice, decimal.NewFromInt(10))
	s.Enter(alice, marketA)
	s.Finalize()

	id := s.Snapshot()

	m, _ := s.Market(marketA)
	m.IsListed = false
	s.PutMarket(m)
	s.PutMarket(newMarket(marketB))
	s.PutSupply(&core.SupplyBalance{Market: marketA, Account: alice})
	s.PutBorrow(&core.BorrowBalance{Market: marketB, Account: bob, OnPool: decimal.NewFromInt(3)})
	s.UpdateRegistry(marketA, core.SuppliersOnPool, alice, decimal.Zero)
	s.UpdateRegistry(marketA, core.SuppliersOnPool, bob, decimal.NewFromInt(4))
	s.Enter(alice, marketB)
	s.Enter(bob, marketB)
	s.Emit(&core.Event{Type: core.EventSupplied})

	s.RevertToSnapshot(id)

	m, ok := s.Market(marketA)
	require.True(t, ok)
	assert.True(t, m.IsListed)
	_, ok = s.Market(marketB)
	assert.False(t, ok)
	assert.Len(t, s.Markets(), 1)

	assert.True(t, s.Supply(marketA, alice).OnPool.Equal(decimal.NewFromInt(10)))
	assert.True(t, s.Borrow(marketB, bob).IsZero())

	r := s.Registry(marketA, core.SuppliersOnPool)
	v, ok := r.Get(alice)
	assert.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(10)))
	_, ok = r.Get(bob)
	assert.False(t, ok)

	assert.Equal(t, []common.Address{marketA}, s.EnteredMarkets(alice))
	assert.Empty(t, s.EnteredMarkets(bob))
	assert.Empty(t, s.PendingEvents())
}

func TestRegistryCloneAfterSnapshot(t *testing.T) {
	s := New()
	s.PutMarket(newMarket(marketA))
	s.UpdateRegistry(marketA, core.BorrowersOnPool, alice, decimal.NewFromInt(1))

	id := s.Snapshot()
	s.UpdateRegistry(marketA, core.BorrowersOnPool, bob, decimal.NewFromInt(2))
	s.RevertToSnapshot(id)

	assert.Equal(t, 1, s.Registry(marketA, core.BorrowersOnPool).Len())

	// a second transaction on the same registry still reverts cleanly
	id = s.Snapshot()
	s.UpdateRegistry(marketA, core.BorrowersOnPool, alice, decimal.Zero)
	s.RevertToSnapshot(id)
	assert.True(t, s.Registry(marketA, core.BorrowersOnPool).IsLive(alice))
}

func TestHasDebt(t *testing.T) {
	s := New()
	s.Enter(alice, marketA)
	s.Enter(alice, marketB)
	assert.False(t, s.HasDebt(alice))

	s.PutBorrow(&core.BorrowBalance{Market: marketB, Account: alice, InP2P: decimal.NewFromInt(1)})
	assert.True(t, s.HasDebt(alice))
	assert.False(t, s.HasDebt(bob))
}

func TestEnterIsIdempotent(t *testing.T) {
	s := New()
	s.Enter(alice, marketA)
	s.Enter(alice, marketB)
	s.Enter(alice, marketA)
	assert.Equal(t, []common.Address{marketA, marketB}, s.EnteredMarkets(alice))
}

func TestChangesAndRestore(t *testing.T) {
	s := New()
	s.PutMarket(newMarket(marketA))
	s.PutSupply(&core.SupplyBalance{Market: marketA, Account: alice, OnPool: decimal.NewFromInt(10)})
	s.PutBorrow(&core.BorrowBalance{Market: marketA, Account: bob, InP2P: decimal.NewFromInt(5)})
	s.Enter(alice, marketA)
	s.Enter(bob, marketA)
	// cap is 2, the third account is buffered
	for i := 1; i <= 3; i++ {
		s.UpdateRegistry(marketA, core.SuppliersOnPool, common.BytesToAddress([]byte{byte(i)}), decimal.NewFromInt(int64(i)))
	}

	cs := s.Changes()
	assert.Len(t, cs.Markets, 1)
	assert.Len(t, cs.Supplies, 1)
	assert.Len(t, cs.Borrows, 1)
	assert.Len(t, cs.Entered, 2)
	assert.Len(t, cs.Registries[core.RegistryKey{Market: marketA, Side: core.SuppliersOnPool}], 3)

	s.Finalize()
	assert.True(t, s.Changes().IsEmpty())

	restored := New()
	restored.Load(s.Dump())
	assert.Equal(t, s.Registry(marketA, core.SuppliersOnPool).Entries(), restored.Registry(marketA, core.SuppliersOnPool).Entries())
	assert.True(t, restored.Supply(marketA, alice).OnPool.Equal(decimal.NewFromInt(10)))
	assert.True(t, restored.HasDebt(bob))
	assert.Equal(t, 2, restored.Registry(marketA, core.SuppliersOnPool).Len())

	// emptied positions are reported as zero rows
	restored.PutSupply(&core.SupplyBalance{Market: marketA, Account: alice})
	cs = restored.Changes()
	require.Len(t, cs.Supplies, 1)
	assert.True(t, cs.Supplies[0].IsZero())
}

func TestSetSupplyEvictsDust(t *testing.T) {
	s := New()
	m := newMarket(marketA)
	m.Threshold = decimal.NewFromInt(5)
	s.PutMarket(m)

	s.SetSupply(m, &core.SupplyBalance{Market: marketA, Account: alice, OnPool: decimal.NewFromInt(4), InP2P: decimal.NewFromInt(1)}, decimal.New(1, 0))
	assert.False(t, s.Registry(marketA, core.SuppliersOnPool).IsLive(alice))
	assert.True(t, s.Registry(marketA, core.SuppliersInP2P).IsLive(alice))

	// at a higher pool rate the same shares are worth enough
	s.SetSupply(m, &core.SupplyBalance{Market: marketA, Account: alice, OnPool: decimal.NewFromInt(4)}, decimal.NewFromInt(2))
	assert.True(t, s.Registry(marketA, core.SuppliersOnPool).IsLive(alice))
	assert.False(t, s.Registry(marketA, core.SuppliersInP2P).IsLive(alice))

	s.SetBorrow(m, &core.BorrowBalance{Market: marketA, Account: bob, OnPool: decimal.NewFromInt(10)}, decimal.New(1, 0))
	assert.True(t, s.Registry(marketA, core.BorrowersOnPool).IsLive(bob))
	s.SetBorrow(m, &core.BorrowBalance{Market: marketA, Account: bob}, decimal.New(1, 0))
	assert.Equal(t, 0, s.Registry(marketA, core.BorrowersOnPool).Len())
}
