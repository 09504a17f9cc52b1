package state

import (
	"p2plend/core"
	"p2plend/pkg/p2p"

	"github.com/shopspring/decimal"
)

// SetSupply stores the supply position and re-ranks it. Pool-side balances
// worth less than the market threshold, at poolRate, are not ranked.
func (s *State) SetSupply(market *core.Market, balance *core.SupplyBalance, poolRate decimal.Decimal) {
	s.PutSupply(balance)

	onPool := balance.OnPool
	if p2p.ToUnderlying(onPool, poolRate).LessThan(market.Threshold) {
		onPool = decimal.Zero
	}

	s.UpdateRegistry(market.Address, core.SuppliersOnPool, balance.Account, onPool)
	s.UpdateRegistry(market.Address, core.SuppliersInP2P, balance.Account, balance.InP2P)
}

// SetBorrow stores the borrow position and re-ranks it, see SetSupply
func (s *State) SetBorrow(market *core.Market, balance *core.BorrowBalance, borrowIndex decimal.Decimal) {
	s.PutBorrow(balance)

	onPool := balance.OnPool
	if p2p.ToUnderlying(onPool, borrowIndex).LessThan(market.Threshold) {
		onPool = decimal.Zero
	}

	s.UpdateRegistry(market.Address, core.BorrowersOnPool, balance.Account, onPool)
	s.UpdateRegistry(market.Address, core.BorrowersInP2P, balance.Account, balance.InP2P)
}
