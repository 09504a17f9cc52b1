package p2p

import (
	"p2plend/pkg/number"

	"github.com/shopspring/decimal"
)

var (
	// Precision fractional digits kept for amounts and rates, the 1e18 fixed-point scale
	Precision int32 = 18
	// One 1e18 in fixed point
	One  = decimal.New(1, 0)
	half = decimal.New(5, -1)
)

// Midrate blended per-block yield, the average of the pool supply and borrow rates
func Midrate(supplyRate, borrowRate decimal.Decimal) decimal.Decimal {
	return supplyRate.Add(borrowRate).Mul(half).Truncate(Precision)
}

// CompoundExchangeRate exchangeRate * (1 + yield)^elapsed
func CompoundExchangeRate(exchangeRate, yield decimal.Decimal, elapsed int64) decimal.Decimal {
	if elapsed <= 0 {
		return exchangeRate
	}

	factor := number.Pow(One.Add(yield), elapsed, Precision)
	return exchangeRate.Mul(factor).Truncate(Precision)
}

// ToUnderlying units * rate
func ToUnderlying(units, rate decimal.Decimal) decimal.Decimal {
	return units.Mul(rate).Truncate(Precision)
}

// FromUnderlying amount / rate, truncated
func FromUnderlying(amount, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}

	return amount.DivRound(rate, Precision+2).Truncate(Precision)
}

// Sub a - b floored at zero
func Sub(a, b decimal.Decimal) decimal.Decimal {
	if c := a.Sub(b); c.IsPositive() {
		return c
	}

	return decimal.Zero
}

// Consume takes min(balance converted at rate, amount) out of balance.
// A fully consumed balance is zeroed, a partial one loses amount converted back at rate.
func Consume(balance, rate, amount decimal.Decimal) (left, taken decimal.Decimal) {
	inUnderlying := ToUnderlying(balance, rate)
	if inUnderlying.LessThanOrEqual(amount) {
		return decimal.Zero, inUnderlying
	}

	return Sub(balance, FromUnderlying(amount, rate)), amount
}
