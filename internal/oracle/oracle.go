// Package oracle is a static price oracle, prices are set by hand.
package oracle

import (
	"context"
	"sync"

	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Oracle static prices, a missing price reads as zero
type Oracle struct {
	mux    sync.RWMutex
	prices map[common.Address]decimal.Decimal
}

// New empty oracle
func New() *Oracle {
	return &Oracle{
		prices: make(map[common.Address]decimal.Decimal),
	}
}

var _ core.IOracle = (*Oracle)(nil)

// SetPrice sets the underlying price of market
func (o *Oracle) SetPrice(market common.Address, price decimal.Decimal) {
	o.mux.Lock()
	defer o.mux.Unlock()

	o.prices[market] = price
}

// GetUnderlyingPrice price of one unit of the underlying of market
func (o *Oracle) GetUnderlyingPrice(_ context.Context, market common.Address) (decimal.Decimal, error) {
	o.mux.RLock()
	defer o.mux.RUnlock()

	return o.prices[market], nil
}
