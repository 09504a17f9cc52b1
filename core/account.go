package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Liquidity aggregated solvency of an account, in oracle units (USD)
type Liquidity struct {
	DebtValue       decimal.Decimal `json:"debt_value"`
	MaxDebtValue    decimal.Decimal `json:"max_debt_value"`
	CollateralValue decimal.Decimal `json:"collateral_value"`
}

// Solvent reports whether the account may keep its debt: no debt at all, or debt strictly below capacity
func (l *Liquidity) Solvent() bool {
	return !l.DebtValue.IsPositive() || l.DebtValue.LessThan(l.MaxDebtValue)
}

// Liquidatable reports whether the debt exceeds the capacity
func (l *Liquidity) Liquidatable() bool {
	return l.DebtValue.GreaterThan(l.MaxDebtValue)
}

// IAccountService solvency calculator
type IAccountService interface {
	// ComputeBalances aggregates debt and borrowing capacity over the entered markets, applying a
	// hypothetical withdraw and borrow on market
	ComputeBalances(ctx context.Context, account, market common.Address, withdraw, borrow decimal.Decimal) (*Liquidity, error)
}
