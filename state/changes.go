package state

import (
	"bytes"
	"sort"

	"p2plend/core"
	"p2plend/pkg/registry"

	"github.com/ethereum/go-ethereum/common"
)

// Changes rows written since the last Finalize. Emptied positions are
// reported as zero rows so the store can overwrite them.
func (s *State) Changes() *core.ChangeSet {
	cs := &core.ChangeSet{
		Registries: make(map[core.RegistryKey][]*core.RegistryEntry),
	}

	for _, address := range s.order {
		if s.dirtyMarkets[address] {
			cs.Markets = append(cs.Markets, s.markets[address].Clone())
		}
	}

	for key := range s.dirtySupplies {
		cs.Supplies = append(cs.Supplies, s.Supply(key.Market, key.Account))
	}

	sort.Slice(cs.Supplies, func(i, j int) bool {
		return lessPosition(cs.Supplies[i].Market, cs.Supplies[i].Account, cs.Supplies[j].Market, cs.Supplies[j].Account)
	})

	for key := range s.dirtyBorrows {
		cs.Borrows = append(cs.Borrows, s.Borrow(key.Market, key.Account))
	}

	sort.Slice(cs.Borrows, func(i, j int) bool {
		return lessPosition(cs.Borrows[i].Market, cs.Borrows[i].Account, cs.Borrows[j].Market, cs.Borrows[j].Account)
	})

	for account := range s.dirtyEntered {
		for idx, market := range s.entered[account] {
			cs.Entered = append(cs.Entered, &core.EnteredMarket{Account: account, Market: market, Seq: idx})
		}
	}

	sort.Slice(cs.Entered, func(i, j int) bool {
		return lessPosition(cs.Entered[i].Account, cs.Entered[i].Market, cs.Entered[j].Account, cs.Entered[j].Market)
	})

	for key := range s.dirtyRegistries {
		cs.Registries[key] = registryRows(key, s.registries[key])
	}

	return cs
}

// Dump the whole state as a changeset, used to seed an empty store
func (s *State) Dump() *core.ChangeSet {
	cs := &core.ChangeSet{
		Markets:    s.Markets(),
		Registries: make(map[core.RegistryKey][]*core.RegistryEntry),
	}

	for _, address := range s.order {
		cs.Supplies = append(cs.Supplies, s.Supplies(address)...)
		cs.Borrows = append(cs.Borrows, s.Borrows(address)...)
	}

	for account, markets := range s.entered {
		for idx, market := range markets {
			cs.Entered = append(cs.Entered, &core.EnteredMarket{Account: account, Market: market, Seq: idx})
		}
	}

	for key, r := range s.registries {
		cs.Registries[key] = registryRows(key, r)
	}

	return cs
}

// Load replaces the whole state with a loaded changeset, nothing is journaled
func (s *State) Load(cs *core.ChangeSet) {
	*s = *New()
	for _, market := range cs.Markets {
		s.markets[market.Address] = market.Clone()
		s.order = append(s.order, market.Address)
	}

	for _, b := range cs.Supplies {
		if !b.IsZero() {
			s.supplies[positionKey{b.Market, b.Account}] = b.Clone()
		}
	}

	for _, b := range cs.Borrows {
		if !b.IsZero() {
			s.borrows[positionKey{b.Market, b.Account}] = b.Clone()
		}
	}

	entered := make([]*core.EnteredMarket, len(cs.Entered))
	copy(entered, cs.Entered)
	sort.SliceStable(entered, func(i, j int) bool {
		return entered[i].Seq < entered[j].Seq
	})

	for _, e := range entered {
		s.entered[e.Account] = append(s.entered[e.Account], e.Market)
	}

	for key, rows := range cs.Registries {
		entries := make([]registry.Entry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, registry.Entry{
				Account:  row.Account,
				Value:    row.Value,
				Buffered: row.Buffered,
				Seq:      row.Seq,
			})
		}

		s.registries[key] = registry.Restore(s.maxPopulation(key.Market), entries)
	}
}

func registryRows(key core.RegistryKey, r *registry.Registry) []*core.RegistryEntry {
	entries := r.Entries()
	rows := make([]*core.RegistryEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, &core.RegistryEntry{
			Market:   key.Market,
			Side:     key.Side,
			Account:  e.Account,
			Value:    e.Value,
			Buffered: e.Buffered,
			Seq:      e.Seq,
		})
	}

	return rows
}

func lessPosition(m1, a1, m2, a2 common.Address) bool {
	if c := bytes.Compare(m1[:], m2[:]); c != 0 {
		return c < 0
	}

	return bytes.Compare(a1[:], a2[:]) < 0
}
