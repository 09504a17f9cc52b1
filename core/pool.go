package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// IPool pool-based money market the overlay sits on (Compound/Cream/Aave like).
// All positions are held on the pool by the overlay itself.
type IPool interface {
	SupplyRatePerBlock(ctx context.Context, market common.Address) (decimal.Decimal, error)
	BorrowRatePerBlock(ctx context.Context, market common.Address) (decimal.Decimal, error)
	// ExchangeRateCurrent share -> underlying
	ExchangeRateCurrent(ctx context.Context, market common.Address) (decimal.Decimal, error)
	BorrowIndex(ctx context.Context, market common.Address) (decimal.Decimal, error)
	Mint(ctx context.Context, market common.Address, amount decimal.Decimal) error
	Redeem(ctx context.Context, market common.Address, shares decimal.Decimal) error
	RedeemUnderlying(ctx context.Context, market common.Address, amount decimal.Decimal) error
	Borrow(ctx context.Context, market common.Address, amount decimal.Decimal) error
	RepayBorrow(ctx context.Context, market common.Address, amount decimal.Decimal) error
	// BalanceOf share balance
	BalanceOf(ctx context.Context, market, owner common.Address) (decimal.Decimal, error)
	// BorrowBalanceOf debt in underlying
	BorrowBalanceOf(ctx context.Context, market, owner common.Address) (decimal.Decimal, error)
	// Cash underlying held by the pool
	Cash(ctx context.Context, market common.Address) (decimal.Decimal, error)
}

// IOracle price oracle, a zero price signals failure
type IOracle interface {
	GetUnderlyingPrice(ctx context.Context, market common.Address) (decimal.Decimal, error)
}

// ILedger token balances of the underlying assets
type ILedger interface {
	Transfer(ctx context.Context, asset, from, to common.Address, amount decimal.Decimal) error
	BalanceOf(ctx context.Context, asset, owner common.Address) (decimal.Decimal, error)
}

// Reverter participates in the all-or-nothing execution of an entry point
type Reverter interface {
	Snapshot() int
	RevertToSnapshot(id int)
	// Finalize drops the undo log once the entry point has succeeded
	Finalize()
}
