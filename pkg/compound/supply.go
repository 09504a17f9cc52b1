package compound

import (
	"github.com/shopspring/decimal"
)

// RedeemAllowed whether the pool holds enough cash for amount of underlying
func RedeemAllowed(amount decimal.Decimal, market *Market) bool {
	supplies := market.TotalCash.Sub(market.Reserves)
	return supplies.GreaterThanOrEqual(amount)
}
