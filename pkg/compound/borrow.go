package compound

import (
	"github.com/shopspring/decimal"
)

// BorrowBalance caculate borrow balance
// balance = principal * market.borrow_index / interest_index
func BorrowBalance(principal, interestIndex, borrowIndex decimal.Decimal) decimal.Decimal {
	if !borrowIndex.IsPositive() {
		borrowIndex = decimal.New(1, 0)
	}

	if !interestIndex.IsPositive() {
		interestIndex = borrowIndex
	}

	principalTimesIndex := principal.Mul(borrowIndex)
	return principalTimesIndex.DivRound(interestIndex, MaxPricision+2).
		Shift(MaxPricision).Ceil().Shift(-MaxPricision)
}
