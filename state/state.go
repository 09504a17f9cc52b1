// Package state is the root container of the overlay: markets, positions,
// entered-markets sets and the ordered registries, all reachable from one
// State. Every mutation is journaled so a failed entry point can be rolled
// back as a whole.
package state

import (
	"bytes"
	"sort"

	"p2plend/core"
	"p2plend/pkg/registry"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type positionKey struct {
	Market  common.Address
	Account common.Address
}

// State root state of the overlay, not safe for concurrent use
type State struct {
	markets    map[common.Address]*core.Market
	order      []common.Address
	supplies   map[positionKey]*core.SupplyBalance
	borrows    map[positionKey]*core.BorrowBalance
	entered    map[common.Address][]common.Address
	registries map[core.RegistryKey]*registry.Registry

	journal journal
	cowed   map[core.RegistryKey]int
	events  []*core.Event

	dirtyMarkets    map[common.Address]bool
	dirtySupplies   map[positionKey]bool
	dirtyBorrows    map[positionKey]bool
	dirtyEntered    map[common.Address]bool
	dirtyRegistries map[core.RegistryKey]bool
}

// New empty state
func New() *State {
	s := &State{
		markets:    make(map[common.Address]*core.Market),
		supplies:   make(map[positionKey]*core.SupplyBalance),
		borrows:    make(map[positionKey]*core.BorrowBalance),
		entered:    make(map[common.Address][]common.Address),
		registries: make(map[core.RegistryKey]*registry.Registry),
	}

	s.clearDirty()
	return s
}

func (s *State) clearDirty() {
	s.cowed = make(map[core.RegistryKey]int)
	s.dirtyMarkets = make(map[common.Address]bool)
	s.dirtySupplies = make(map[positionKey]bool)
	s.dirtyBorrows = make(map[positionKey]bool)
	s.dirtyEntered = make(map[common.Address]bool)
	s.dirtyRegistries = make(map[core.RegistryKey]bool)
}

// Snapshot marks the journal, see RevertToSnapshot
func (s *State) Snapshot() int {
	s.journal.epoch++
	return s.journal.length()
}

// RevertToSnapshot undoes every mutation made after the snapshot id
func (s *State) RevertToSnapshot(id int) {
	s.journal.revert(id)
	s.journal.epoch++
}

// Finalize forgets the journal, the dirty sets and the pending events of a finished entry point
func (s *State) Finalize() {
	s.journal.reset()
	s.events = nil
	s.clearDirty()
}

// Market returns a copy of the market
func (s *State) Market(address common.Address) (*core.Market, bool) {
	m, ok := s.markets[address]
	if !ok {
		return nil, false
	}

	return m.Clone(), true
}

// Markets all markets in creation order
func (s *State) Markets() []*core.Market {
	markets := make([]*core.Market, 0, len(s.order))
	for _, address := range s.order {
		markets = append(markets, s.markets[address].Clone())
	}

	return markets
}

// PutMarket creates or replaces a market
func (s *State) PutMarket(market *core.Market) {
	address := market.Address
	prev, existed := s.markets[address]
	s.markets[address] = market.Clone()
	if !existed {
		s.order = append(s.order, address)
	}

	s.dirtyMarkets[address] = true
	s.journal.append(func() {
		if existed {
			s.markets[address] = prev
			return
		}

		delete(s.markets, address)
		s.order = s.order[:len(s.order)-1]
	})
}

// Supply supply position of account, zero valued when absent
func (s *State) Supply(market, account common.Address) *core.SupplyBalance {
	if b, ok := s.supplies[positionKey{market, account}]; ok {
		return b.Clone()
	}

	return &core.SupplyBalance{Market: market, Account: account}
}

// PutSupply stores the position, an empty one is dropped
func (s *State) PutSupply(balance *core.SupplyBalance) {
	key := positionKey{balance.Market, balance.Account}
	prev, existed := s.supplies[key]
	if balance.IsZero() {
		delete(s.supplies, key)
	} else {
		s.supplies[key] = balance.Clone()
	}

	s.dirtySupplies[key] = true
	s.journal.append(func() {
		if existed {
			s.supplies[key] = prev
			return
		}

		delete(s.supplies, key)
	})
}

// Borrow borrow position of account, zero valued when absent
func (s *State) Borrow(market, account common.Address) *core.BorrowBalance {
	if b, ok := s.borrows[positionKey{market, account}]; ok {
		return b.Clone()
	}

	return &core.BorrowBalance{Market: market, Account: account}
}

// PutBorrow stores the position, an empty one is dropped
func (s *State) PutBorrow(balance *core.BorrowBalance) {
	key := positionKey{balance.Market, balance.Account}
	prev, existed := s.borrows[key]
	if balance.IsZero() {
		delete(s.borrows, key)
	} else {
		s.borrows[key] = balance.Clone()
	}

	s.dirtyBorrows[key] = true
	s.journal.append(func() {
		if existed {
			s.borrows[key] = prev
			return
		}

		delete(s.borrows, key)
	})
}

// Supplies nonzero supply positions of a market ordered by account
func (s *State) Supplies(market common.Address) []*core.SupplyBalance {
	var list []*core.SupplyBalance
	for key, b := range s.supplies {
		if key.Market == market {
			list = append(list, b.Clone())
		}
	}

	sort.Slice(list, func(i, j int) bool {
		return bytes.Compare(list[i].Account[:], list[j].Account[:]) < 0
	})

	return list
}

// Borrows nonzero borrow positions of a market ordered by account
func (s *State) Borrows(market common.Address) []*core.BorrowBalance {
	var list []*core.BorrowBalance
	for key, b := range s.borrows {
		if key.Market == market {
			list = append(list, b.Clone())
		}
	}

	sort.Slice(list, func(i, j int) bool {
		return bytes.Compare(list[i].Account[:], list[j].Account[:]) < 0
	})

	return list
}

// EnteredMarkets markets of account in entry order
func (s *State) EnteredMarkets(account common.Address) []common.Address {
	markets := s.entered[account]
	out := make([]common.Address, len(markets))
	copy(out, markets)
	return out
}

// Enter adds market to the entered set of account, entering twice is a no-op
func (s *State) Enter(account, market common.Address) {
	for _, m := range s.entered[account] {
		if m == market {
			return
		}
	}

	s.entered[account] = append(s.entered[account], market)
	s.dirtyEntered[account] = true
	s.journal.append(func() {
		markets := s.entered[account]
		if len(markets) == 1 {
			delete(s.entered, account)
			return
		}

		s.entered[account] = markets[:len(markets)-1]
	})
}

// HasDebt reports whether account owes anything in any market
func (s *State) HasDebt(account common.Address) bool {
	for _, market := range s.entered[account] {
		if b, ok := s.borrows[positionKey{market, account}]; ok && !b.IsZero() {
			return true
		}
	}

	return false
}

// Registry read only view of a registry, callers mutate through UpdateRegistry
func (s *State) Registry(market common.Address, side core.Side) *registry.Registry {
	key := core.RegistryKey{Market: market, Side: side}
	if r, ok := s.registries[key]; ok {
		return r
	}

	r := registry.New(s.maxPopulation(market))
	s.registries[key] = r
	return r
}

func (s *State) maxPopulation(market common.Address) int {
	if m, ok := s.markets[market]; ok {
		return m.MaxPopulation
	}

	return 0
}

// writable clones the registry once per snapshot epoch and journals the swap
func (s *State) writable(key core.RegistryKey) *registry.Registry {
	current := s.Registry(key.Market, key.Side)
	if epoch, ok := s.cowed[key]; ok && epoch == s.journal.epoch {
		return current
	}

	prevEpoch, hadEpoch := s.cowed[key]
	clone := current.Clone()
	s.registries[key] = clone
	s.cowed[key] = s.journal.epoch
	s.journal.append(func() {
		s.registries[key] = current
		if hadEpoch {
			s.cowed[key] = prevEpoch
		} else {
			delete(s.cowed, key)
		}
	})

	return clone
}

// UpdateRegistry tracks value for account, zero removes it
func (s *State) UpdateRegistry(market common.Address, side core.Side, account common.Address, value decimal.Decimal) {
	key := core.RegistryKey{Market: market, Side: side}
	current, tracked := s.Registry(market, side).Get(account)
	if tracked && current.Equal(value) || !tracked && !value.IsPositive() {
		return
	}

	s.writable(key).Update(account, value)
	s.dirtyRegistries[key] = true
}

// SetMaxPopulation applies a new population cap to the four registries of market
func (s *State) SetMaxPopulation(market common.Address, maxSize int) {
	for _, side := range core.Sides {
		key := core.RegistryKey{Market: market, Side: side}
		s.writable(key).SetMaxSize(maxSize)
		s.dirtyRegistries[key] = true
	}
}

// Emit queues an event, dropped if the entry point reverts
func (s *State) Emit(event *core.Event) {
	s.events = append(s.events, event)
	s.journal.append(func() {
		s.events = s.events[:len(s.events)-1]
	})
}

// PendingEvents events emitted since the last Finalize
func (s *State) PendingEvents() []*core.Event {
	events := make([]*core.Event, len(s.events))
	copy(events, s.events)
	return events
}
