package number

import (
	"github.com/shopspring/decimal"
)

func Decimal(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func Ceil(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Ceil().Shift(-precision)
}

// Pow fixed-point base^exp, every intermediate product truncated to precision
func Pow(base decimal.Decimal, exp int64, precision int32) decimal.Decimal {
	result := decimal.New(1, 0)
	if exp <= 0 {
		return result
	}

	b := base.Truncate(precision)
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(b).Truncate(precision)
		}

		exp >>= 1
		if exp > 0 {
			b = b.Mul(b).Truncate(precision)
		}
	}

	return result
}

// Min smaller of a and b
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}

	return b
}
