package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// EventType event type
type EventType string

const (
	EventMarketCreated        EventType = "market_created"
	EventMarketListed         EventType = "market_listed"
	EventMarketDelisted       EventType = "market_delisted"
	EventParameterUpdated     EventType = "parameter_updated"
	EventRateUpdated          EventType = "rate_updated"
	EventSupplied             EventType = "supplied"
	EventBorrowed             EventType = "borrowed"
	EventRepaid               EventType = "repaid"
	EventWithdrawn            EventType = "withdrawn"
	EventLiquidated           EventType = "liquidated"
	EventSupplierMovedToPool  EventType = "supplier_moved_to_pool"
	EventSupplierPositionSync EventType = "supplier_position_updated"
	EventBorrowerPositionSync EventType = "borrower_position_updated"
)

// Event notification emitted by a successful entry point
type Event struct {
	TraceID string          `json:"trace_id"`
	Type    EventType       `json:"type"`
	Block   int64           `json:"block"`
	Market  common.Address  `json:"market"`
	Account common.Address  `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
	// type specific, e.g. exchange rate for rate_updated, seized amount for liquidated
	Extra decimal.Decimal `json:"extra"`
	// counterparty, e.g. liquidator or receiver
	Sender common.Address `json:"sender"`
}

// EventView flat string fields of an event, for logs and printing
type EventView struct {
	TraceID string    `json:"trace_id"`
	Type    EventType `json:"type"`
	Block   int64     `json:"block"`
	Market  string    `json:"market"`
	Account string    `json:"account"`
	Amount  string    `json:"amount"`
	Extra   string    `json:"extra"`
	Sender  string    `json:"sender"`
}

// View flat view of e
func (e *Event) View() EventView {
	return EventView{
		TraceID: e.TraceID,
		Type:    e.Type,
		Block:   e.Block,
		Market:  e.Market.Hex(),
		Account: e.Account.Hex(),
		Amount:  e.Amount.String(),
		Extra:   e.Extra.String(),
		Sender:  e.Sender.Hex(),
	}
}
