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

// Withdraw sends amount of the supply of holder to receiver
func (s *service) Withdraw(ctx context.Context, address, holder, receiver common.Address, amount decimal.Decimal) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"market":  address.Hex(),
		"account": holder.Hex(),
	})

	m, r, err := s.market(ctx, address, false)
	if err != nil {
		return err
	}

	supply := s.state.Supply(address, holder)
	total := supplyInUnderlying(supply, r)

	if err := p2p.Require(amount.IsPositive(), "positions/amount-zero", core.ErrInvalidAmount); err != nil {
		return err
	}

	if err := p2p.Require(amount.LessThanOrEqual(total), "positions/withdraw-exceeds-supply", core.ErrInsufficientBalance); err != nil {
		log.WithError(err).Infof("supply %s", total)
		return err
	}

	if err := p2p.Require(amount.GreaterThanOrEqual(m.Threshold) || amount.Equal(total), "positions/amount-below-threshold", core.ErrAmountBelowThreshold); err != nil {
		return err
	}

	liquidity, err := s.accountService.ComputeBalances(ctx, holder, address, amount, decimal.Zero)
	if err != nil {
		return err
	}

	if err := p2p.Require(liquidity.Solvent(), "positions/withdraw-insufficient-collaterals", core.ErrInsufficientCollaterals); err != nil {
		log.WithError(err).Infof("debt %s, max debt %s", liquidity.DebtValue, liquidity.MaxDebtValue)
		return err
	}

	if err := s.withdraw(ctx, m, r, holder, amount); err != nil {
		return err
	}

	if err := s.ledger.Transfer(ctx, address, s.self, receiver, amount); err != nil {
		log.WithError(err).Errorln("ledger.Transfer")
		return fmt.Errorf("ledger.Transfer: %w", err)
	}

	s.emit(ctx, &core.Event{
		Type:    core.EventWithdrawn,
		Market:  address,
		Account: holder,
		Amount:  amount,
		Sender:  receiver,
	})

	return nil
}

// withdraw frees amount of the supply of holder into the overlay's hands, drawing on
// (1) the holder's own pool balance
// (2) pool suppliers replacing the holder in p2p, bounded by what the pool can redeem
// (3) p2p borrowers pushed onto the pool for the rest
func (s *service) withdraw(ctx context.Context, m *core.Market, r *rates, holder common.Address, amount decimal.Decimal) error {
	log := logger.FromContext(ctx).WithField("market", m.Address.Hex())

	supply := s.state.Supply(m.Address, holder)
	remaining := amount

	if supply.OnPool.IsPositive() {
		shares := supply.OnPool
		onPool, taken := p2p.Consume(supply.OnPool, r.pool, remaining)
		supply.OnPool = onPool
		s.state.SetSupply(m, supply, r.pool)
		remaining = remaining.Sub(taken)

		switch {
		case !taken.IsPositive():
		case onPool.IsZero():
			if err := s.pool.Redeem(ctx, m.Address, shares); err != nil {
				log.WithError(err).Errorln("pool.Redeem")
				return fmt.Errorf("pool.Redeem: %w", err)
			}
		default:
			if err := s.pool.RedeemUnderlying(ctx, m.Address, taken); err != nil {
				log.WithError(err).Errorln("pool.RedeemUnderlying")
				return fmt.Errorf("pool.RedeemUnderlying: %w", err)
			}
		}
	}

	if !remaining.IsPositive() {
		s.emitSupplier(ctx, m, supply)
		return nil
	}

	inP2P, taken := p2p.Consume(supply.InP2P, r.p2p, remaining)
	supply.InP2P = inP2P
	s.state.SetSupply(m, supply, r.pool)
	remaining = taken

	shares, err := s.pool.BalanceOf(ctx, m.Address, s.self)
	if err != nil {
		log.WithError(err).Errorln("pool.BalanceOf")
		return fmt.Errorf("pool.BalanceOf: %w", err)
	}

	cash, err := s.pool.Cash(ctx, m.Address)
	if err != nil {
		log.WithError(err).Errorln("pool.Cash")
		return fmt.Errorf("pool.Cash: %w", err)
	}

	unmatched := remaining
	if available := number.Min(p2p.ToUnderlying(shares, r.pool), cash); available.IsPositive() {
		toMatch := number.Min(remaining, available)
		left, err := s.engine.MatchSuppliers(ctx, m.Address, toMatch, holder)
		if err != nil {
			return err
		}

		unmatched = remaining.Sub(toMatch).Add(left)
	}

	if unmatched.IsPositive() {
		if err := s.engine.UnmatchBorrowers(ctx, m.Address, unmatched); err != nil {
			return err
		}
	}

	s.emitSupplier(ctx, m, supply)
	return nil
}
