package views

import (
	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
)

// Position supply and borrow of an account in one market
type Position struct {
	Market common.Address      `json:"market"`
	Symbol string              `json:"symbol"`
	Supply *core.SupplyBalance `json:"supply,omitempty"`
	Borrow *core.BorrowBalance `json:"borrow,omitempty"`
}

// Account account view
type Account struct {
	Address      common.Address  `json:"address"`
	Entered      []string        `json:"entered"`
	Positions    []Position      `json:"positions"`
	Liquidity    *core.Liquidity `json:"liquidity"`
	Solvent      bool            `json:"solvent"`
	Liquidatable bool            `json:"liquidatable"`
}
