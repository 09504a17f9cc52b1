package views

import (
	"p2plend/core"
	"p2plend/pkg/registry"

	"github.com/shopspring/decimal"
)

// Population live and buffered accounts of one registry
type Population struct {
	Live     int `json:"live"`
	Buffered int `json:"buffered"`
}

// Market market view
type Market struct {
	core.Market
	Suppliers int `json:"suppliers"`
	Borrowers int `json:"borrowers"`
	// p2p units
	SupplyInP2P decimal.Decimal `json:"supply_in_p2p"`
	BorrowInP2P decimal.Decimal `json:"borrow_in_p2p"`
	// pool shares and pool debt
	SupplyOnPool decimal.Decimal       `json:"supply_on_pool"`
	BorrowOnPool decimal.Decimal       `json:"borrow_on_pool"`
	Registries   map[string]Population `json:"registries"`
}

// MarketView aggregates the positions and registries of market
func MarketView(
	market *core.Market,
	supplies []*core.SupplyBalance,
	borrows []*core.BorrowBalance,
	registries map[core.Side][]registry.Entry,
) Market {
	view := Market{
		Market:     *market,
		Suppliers:  len(supplies),
		Borrowers:  len(borrows),
		Registries: make(map[string]Population, len(registries)),
	}

	for _, s := range supplies {
		view.SupplyInP2P = view.SupplyInP2P.Add(s.InP2P)
		view.SupplyOnPool = view.SupplyOnPool.Add(s.OnPool)
	}

	for _, b := range borrows {
		view.BorrowInP2P = view.BorrowInP2P.Add(b.InP2P)
		view.BorrowOnPool = view.BorrowOnPool.Add(b.OnPool)
	}

	for side, entries := range registries {
		var p Population
		for _, e := range entries {
			if e.Buffered {
				p.Buffered++
			} else {
				p.Live++
			}
		}

		view.Registries[side.String()] = p
	}

	return view
}
