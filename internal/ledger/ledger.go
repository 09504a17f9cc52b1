// Package ledger is an in-memory token ledger standing in for the ERC20
// contracts of the underlying assets.
package ledger

import (
	"context"
	"fmt"

	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type balanceKey struct {
	Asset common.Address
	Owner common.Address
}

// Ledger token balances, not safe for concurrent use
type Ledger struct {
	balances map[balanceKey]decimal.Decimal
	journal  []func()
}

// New empty ledger
func New() *Ledger {
	return &Ledger{
		balances: make(map[balanceKey]decimal.Decimal),
	}
}

var _ core.ILedger = (*Ledger)(nil)
var _ core.Reverter = (*Ledger)(nil)

// BalanceOf balance of owner in asset
func (l *Ledger) BalanceOf(_ context.Context, asset, owner common.Address) (decimal.Decimal, error) {
	return l.balances[balanceKey{asset, owner}], nil
}

// Transfer moves amount of asset, a non-positive amount moves nothing
func (l *Ledger) Transfer(_ context.Context, asset, from, to common.Address, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}

	balance := l.balances[balanceKey{asset, from}]
	if balance.LessThan(amount) {
		return fmt.Errorf("ledger: transfer %s of %s from %s: %w", amount, asset.Hex(), from.Hex(), core.ErrInsufficientBalance)
	}

	l.set(balanceKey{asset, from}, balance.Sub(amount))
	l.set(balanceKey{asset, to}, l.balances[balanceKey{asset, to}].Add(amount))
	return nil
}

// Mint credits amount of asset to owner out of thin air
func (l *Ledger) Mint(asset, owner common.Address, amount decimal.Decimal) {
	l.set(balanceKey{asset, owner}, l.balances[balanceKey{asset, owner}].Add(amount))
}

func (l *Ledger) set(key balanceKey, value decimal.Decimal) {
	prev, existed := l.balances[key]
	l.balances[key] = value
	l.journal = append(l.journal, func() {
		if existed {
			l.balances[key] = prev
			return
		}

		delete(l.balances, key)
	})
}

// Snapshot marks the undo log
func (l *Ledger) Snapshot() int {
	return len(l.journal)
}

// RevertToSnapshot undoes the transfers made after the snapshot id
func (l *Ledger) RevertToSnapshot(id int) {
	for i := len(l.journal) - 1; i >= id; i-- {
		l.journal[i]()
	}

	l.journal = l.journal[:id]
}

// Finalize drops the undo log
func (l *Ledger) Finalize() {
	l.journal = nil
}
