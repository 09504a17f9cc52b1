package compound

import (
	"github.com/shopspring/decimal"
)

// Market state of one pool market (a cToken)
type Market struct {
	TotalCash    decimal.Decimal
	TotalBorrows decimal.Decimal
	// 保留金
	Reserves decimal.Decimal
	// CToken 累计铸造出来的币的数量
	CTokens decimal.Decimal
	// 初始兑换率
	InitExchangeRate decimal.Decimal
	// 平台保留金率 (0, 1), 默认为 0.10
	ReserveFactor decimal.Decimal
	// 基础利率 per year, 0.025
	BaseRate decimal.Decimal
	// The multiplier of utilization rate that gives the slope of the interest rate. per year
	Multiplier decimal.Decimal
	// The multiplierPerBlock after hitting a specified utilization point. per year
	JumpMultiplier decimal.Decimal
	Kink           decimal.Decimal
	BorrowIndex    decimal.Decimal
	BlockNumber    int64
}

// CurExchangeRate current ctoken -> underlying rate
func (m *Market) CurExchangeRate() decimal.Decimal {
	return GetExchangeRate(m.TotalCash, m.TotalBorrows, m.Reserves, m.CTokens, m.InitExchangeRate)
}

// CurBorrowRatePerBlock current borrow rate per block
func (m *Market) CurBorrowRatePerBlock() decimal.Decimal {
	return GetBorrowRatePerBlock(
		UtilizationRate(m.TotalCash, m.TotalBorrows, m.Reserves),
		m.BaseRate,
		m.Multiplier,
		m.JumpMultiplier,
		m.Kink,
	)
}

// CurSupplyRatePerBlock current supply rate per block
func (m *Market) CurSupplyRatePerBlock() decimal.Decimal {
	return GetSupplyRatePerBlock(
		UtilizationRate(m.TotalCash, m.TotalBorrows, m.Reserves),
		m.BaseRate,
		m.Multiplier,
		m.JumpMultiplier,
		m.Kink,
		m.ReserveFactor,
	)
}

// CurBorrowRate current borrow APY
func (m *Market) CurBorrowRate() decimal.Decimal {
	return m.CurBorrowRatePerBlock().Mul(BlocksPerYear).Truncate(MaxPricision)
}

// CurSupplyRate current supply APY
func (m *Market) CurSupplyRate() decimal.Decimal {
	return m.CurSupplyRatePerBlock().Mul(BlocksPerYear).Truncate(MaxPricision)
}

// AccrueInterest accrue interest of the market up to blockNum
//
// Accruing interest only occurs when there is a behavior that causes changes in market transaction data, such as supply, borrow, redeem, repay
func AccrueInterest(market *Market, blockNum int64) {
	if !market.BorrowIndex.IsPositive() {
		market.BorrowIndex = decimal.New(1, 0)
	}

	if blockDelta := blockNum - market.BlockNumber; blockDelta > 0 {
		borrowRate := market.CurBorrowRatePerBlock()
		timesBorrowRate := borrowRate.Mul(decimal.NewFromInt(blockDelta))
		interestAccumulated := market.TotalBorrows.Mul(timesBorrowRate).Truncate(MaxPricision)

		market.BlockNumber = blockNum
		market.TotalBorrows = market.TotalBorrows.Add(interestAccumulated)
		market.Reserves = market.Reserves.Add(interestAccumulated.Mul(market.ReserveFactor).Truncate(MaxPricision))
		market.BorrowIndex = market.BorrowIndex.Add(
			timesBorrowRate.Mul(market.BorrowIndex).
				Shift(MaxPricision).Ceil().Shift(-MaxPricision))
	}
}
