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

// Repay pays back up to amount of the debt of onBehalf with funds of payer
func (s *service) Repay(ctx context.Context, address, payer, onBehalf common.Address, amount decimal.Decimal) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"market":  address.Hex(),
		"account": onBehalf.Hex(),
	})

	m, r, err := s.market(ctx, address, false)
	if err != nil {
		return err
	}

	if err := p2p.Require(amount.IsPositive(), "positions/amount-zero", core.ErrInvalidAmount); err != nil {
		return err
	}

	// a payment below the threshold is fine only when it clears the debt
	debt := borrowInUnderlying(s.state.Borrow(address, onBehalf), r)
	capped := number.Min(amount, debt)
	if err := p2p.Require(capped.GreaterThanOrEqual(m.Threshold) || capped.Equal(debt), "positions/amount-below-threshold", core.ErrAmountBelowThreshold); err != nil {
		log.WithError(err).Infoln("repay rejected")
		return err
	}

	repaid, err := s.repay(ctx, m, r, payer, onBehalf, amount)
	if err != nil {
		log.WithError(err).Infoln("repay rejected")
		return err
	}

	s.emit(ctx, &core.Event{
		Type:    core.EventRepaid,
		Market:  address,
		Account: onBehalf,
		Amount:  repaid,
		Sender:  payer,
	})

	return nil
}

// repay pool debt first, then p2p debt. The p2p suppliers left without a
// counterparty are matched with pool borrowers or moved to the pool.
// No threshold applies here, liquidations repay through it.
func (s *service) repay(ctx context.Context, m *core.Market, r *rates, payer, onBehalf common.Address, amount decimal.Decimal) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithField("market", m.Address.Hex())

	if err := p2p.Require(amount.IsPositive(), "positions/amount-zero", core.ErrInvalidAmount); err != nil {
		return decimal.Zero, err
	}

	borrow := s.state.Borrow(m.Address, onBehalf)
	debt := borrowInUnderlying(borrow, r)
	if err := p2p.Require(debt.IsPositive(), "positions/nothing-to-repay", core.ErrInsufficientBalance); err != nil {
		return decimal.Zero, err
	}

	if amount.GreaterThan(debt) {
		amount = debt
	}

	if err := s.ledger.Transfer(ctx, m.Address, payer, s.self, amount); err != nil {
		log.WithError(err).Errorln("ledger.Transfer")
		return decimal.Zero, fmt.Errorf("ledger.Transfer: %w", err)
	}

	remaining := amount
	if borrow.OnPool.IsPositive() {
		onPool, repaid := p2p.Consume(borrow.OnPool, r.borrowIndex, remaining)
		borrow.OnPool = onPool
		remaining = remaining.Sub(repaid)
		s.state.SetBorrow(m, borrow, r.borrowIndex)

		if repaid.IsPositive() {
			if err := s.pool.RepayBorrow(ctx, m.Address, repaid); err != nil {
				log.WithError(err).Errorln("pool.RepayBorrow")
				return decimal.Zero, fmt.Errorf("pool.RepayBorrow: %w", err)
			}
		}
	}

	if remaining.IsPositive() {
		inP2P, _ := p2p.Consume(borrow.InP2P, r.p2p, remaining)
		borrow.InP2P = inP2P
		s.state.SetBorrow(m, borrow, r.borrowIndex)

		unmatched, err := s.engine.MatchBorrowers(ctx, m.Address, remaining)
		if err != nil {
			return decimal.Zero, err
		}

		if unmatched.IsPositive() {
			if err := s.engine.UnmatchSuppliers(ctx, m.Address, unmatched); err != nil {
				return decimal.Zero, err
			}
		}
	}

	s.emitBorrower(ctx, m, borrow)
	return amount, nil
}
