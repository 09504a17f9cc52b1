package positions

import (
	"context"
	"fmt"

	"p2plend/core"
	"p2plend/pkg/number"
	"p2plend/pkg/p2p"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Liquidate repays debt of an undercollateralized borrower and seizes its collateral
//
// seize = repay * price_borrowed * liquidation_incentive / price_collateral
func (s *service) Liquidate(ctx context.Context, borrowedAddress, collateralAddress, liquidator, borrower common.Address, amount decimal.Decimal) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"borrowed":   borrowedAddress.Hex(),
		"collateral": collateralAddress.Hex(),
		"borrower":   borrower.Hex(),
	})

	if err := p2p.Require(liquidator != borrower, "positions/liquidate-self", core.ErrLiquidationNotAllowed); err != nil {
		return err
	}

	if err := p2p.Require(amount.IsPositive(), "positions/amount-zero", core.ErrInvalidAmount); err != nil {
		return err
	}

	borrowed, borrowedRates, err := s.market(ctx, borrowedAddress, false)
	if err != nil {
		return err
	}

	collateral, collateralRates, err := s.market(ctx, collateralAddress, false)
	if err != nil {
		return err
	}

	liquidity, err := s.accountService.ComputeBalances(ctx, borrower, common.Address{}, decimal.Zero, decimal.Zero)
	if err != nil {
		return err
	}

	if err := p2p.Require(liquidity.Liquidatable(), "positions/borrower-solvent", core.ErrLiquidationNotAllowed); err != nil {
		log.WithError(err).Infof("debt %s, max debt %s", liquidity.DebtValue, liquidity.MaxDebtValue)
		return err
	}

	debt := borrowInUnderlying(s.state.Borrow(borrowedAddress, borrower), borrowedRates)
	maxRepay := debt.Mul(borrowed.CloseFactor).Truncate(p2p.Precision)
	repayAmount := number.Min(amount, maxRepay)
	if err := p2p.Require(repayAmount.IsPositive(), "positions/nothing-to-liquidate", core.ErrLiquidationNotAllowed); err != nil {
		return err
	}

	borrowedPrice, err := s.price(ctx, borrowedAddress)
	if err != nil {
		return err
	}

	collateralPrice, err := s.price(ctx, collateralAddress)
	if err != nil {
		return err
	}

	seize := repayAmount.Mul(borrowedPrice).Mul(collateral.LiquidationIncentive).
		DivRound(collateralPrice, p2p.Precision+2).Truncate(p2p.Precision)
	available := supplyInUnderlying(s.state.Supply(collateralAddress, borrower), collateralRates)
	if err := p2p.Require(seize.LessThanOrEqual(available), "positions/seize-exceeds-collateral", core.ErrSeizeNotAllowed); err != nil {
		log.WithError(err).Infof("seize %s, collateral %s", seize, available)
		return err
	}

	if _, err := s.repay(ctx, borrowed, borrowedRates, liquidator, borrower, repayAmount); err != nil {
		return err
	}

	if err := s.withdraw(ctx, collateral, collateralRates, borrower, seize); err != nil {
		return err
	}

	if err := s.ledger.Transfer(ctx, collateralAddress, s.self, liquidator, seize); err != nil {
		log.WithError(err).Errorln("ledger.Transfer")
		return fmt.Errorf("ledger.Transfer: %w", err)
	}

	s.emit(ctx, &core.Event{
		Type:    core.EventLiquidated,
		Market:  borrowedAddress,
		Account: borrower,
		Amount:  repayAmount,
		Extra:   seize,
		Sender:  liquidator,
	})

	log.Infof("liquidated %s, seized %s", repayAmount, seize)
	return nil
}

func (s *service) price(ctx context.Context, address common.Address) (decimal.Decimal, error) {
	price, err := s.oracle.GetUnderlyingPrice(ctx, address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("oracle.GetUnderlyingPrice: %w", err)
	}

	if err := p2p.Require(price.IsPositive(), "positions/oracle-price-zero", core.ErrInvalidPrice); err != nil {
		return decimal.Zero, err
	}

	return price, nil
}
