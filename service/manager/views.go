package manager

import (
	"fmt"

	"p2plend/core"
	"p2plend/pkg/registry"

	"github.com/ethereum/go-ethereum/common"
)

// Market market by address
func (m *Manager) Market(address common.Address) (*core.Market, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	market, ok := m.state.Market(address)
	if !ok {
		return nil, fmt.Errorf("market %s: %w", address.Hex(), core.ErrMarketNotFound)
	}

	return market, nil
}

// Markets all markets in creation order
func (m *Manager) Markets() []*core.Market {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.state.Markets()
}

// SupplyBalance supply position of account in market
func (m *Manager) SupplyBalance(market, account common.Address) *core.SupplyBalance {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.state.Supply(market, account)
}

// BorrowBalance borrow position of account in market
func (m *Manager) BorrowBalance(market, account common.Address) *core.BorrowBalance {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.state.Borrow(market, account)
}

// Supplies supply positions of market
func (m *Manager) Supplies(market common.Address) []*core.SupplyBalance {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.state.Supplies(market)
}

// Borrows borrow positions of market
func (m *Manager) Borrows(market common.Address) []*core.BorrowBalance {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.state.Borrows(market)
}

// EnteredMarkets markets account has entered, in entry order
func (m *Manager) EnteredMarkets(account common.Address) []common.Address {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.state.EnteredMarkets(account)
}

// Registry ranked entries of one registry, live ones first
func (m *Manager) Registry(market common.Address, side core.Side) []registry.Entry {
	// 读取时可能创建空 registry
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.state.Registry(market, side).Entries()
}

// Events events published so far
func (m *Manager) Events() []*core.Event {
	m.mux.RLock()
	defer m.mux.RUnlock()

	events := make([]*core.Event, len(m.history))
	copy(events, m.history)
	return events
}
