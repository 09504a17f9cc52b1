package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// IPositionsManager position accounting entry points, the swappable logic module of the overlay
type IPositionsManager interface {
	Supply(ctx context.Context, market, account common.Address, amount decimal.Decimal) error
	Borrow(ctx context.Context, market, account common.Address, amount decimal.Decimal) error
	Repay(ctx context.Context, market, payer, onBehalf common.Address, amount decimal.Decimal) error
	Withdraw(ctx context.Context, market, holder, receiver common.Address, amount decimal.Decimal) error
	Liquidate(ctx context.Context, borrowedMarket, collateralMarket, liquidator, borrower common.Address, amount decimal.Decimal) error
}

// IMatchingEngine moves liquidity between pool and p2p for one market.
// Amounts are in underlying.
type IMatchingEngine interface {
	// MatchSuppliers moves pool-side suppliers to p2p and returns what could not be matched
	MatchSuppliers(ctx context.Context, market common.Address, amount decimal.Decimal, except common.Address) (decimal.Decimal, error)
	// MatchBorrowers moves pool-side borrowers to p2p and returns what could not be matched
	MatchBorrowers(ctx context.Context, market common.Address, amount decimal.Decimal) (decimal.Decimal, error)
	// UnmatchSuppliers moves p2p suppliers back to the pool, the full amount or ErrUnmatchIncomplete
	UnmatchSuppliers(ctx context.Context, market common.Address, amount decimal.Decimal) error
	// UnmatchBorrowers moves p2p borrowers back to the pool, the full amount or ErrUnmatchIncomplete
	UnmatchBorrowers(ctx context.Context, market common.Address, amount decimal.Decimal) error
}
