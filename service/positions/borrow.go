package positions

import (
	"context"
	"fmt"

	"p2plend/core"
	"p2plend/pkg/p2p"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Borrow lends amount to account, matched against pool suppliers first
func (s *service) Borrow(ctx context.Context, address, account common.Address, amount decimal.Decimal) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"market":  address.Hex(),
		"account": account.Hex(),
	})

	m, r, err := s.market(ctx, address, true)
	if err != nil {
		return err
	}

	if err := requireAmount(amount, m.Threshold); err != nil {
		log.WithError(err).Infoln("borrow rejected")
		return err
	}

	liquidity, err := s.accountService.ComputeBalances(ctx, account, address, decimal.Zero, amount)
	if err != nil {
		return err
	}

	if err := p2p.Require(liquidity.Solvent(), "positions/borrow-insufficient-collaterals", core.ErrInsufficientCollaterals); err != nil {
		log.WithError(err).Infof("debt %s, max debt %s", liquidity.DebtValue, liquidity.MaxDebtValue)
		return err
	}

	for _, entered := range s.state.EnteredMarkets(account) {
		if err := s.moveSupplierToPool(ctx, entered, account); err != nil {
			return err
		}
	}

	s.state.Enter(account, address)

	remaining := amount
	if s.state.Registry(address, core.SuppliersOnPool).Len() > 0 {
		remaining, err = s.engine.MatchSuppliers(ctx, address, amount, account)
		if err != nil {
			return err
		}
	}

	borrow := s.state.Borrow(address, account)
	if matched := amount.Sub(remaining); matched.IsPositive() {
		borrow.InP2P = borrow.InP2P.Add(p2p.FromUnderlying(matched, r.p2p))
	}

	if remaining.IsPositive() {
		if err := s.pool.Borrow(ctx, address, remaining); err != nil {
			log.WithError(err).Errorln("pool.Borrow")
			return fmt.Errorf("pool.Borrow: %w", err)
		}

		borrow.OnPool = borrow.OnPool.Add(p2p.FromUnderlying(remaining, r.borrowIndex))
	}

	s.state.SetBorrow(m, borrow, r.borrowIndex)

	if err := s.ledger.Transfer(ctx, address, s.self, account, amount); err != nil {
		log.WithError(err).Errorln("ledger.Transfer")
		return fmt.Errorf("ledger.Transfer: %w", err)
	}

	s.emit(ctx, &core.Event{
		Type:    core.EventBorrowed,
		Market:  address,
		Account: account,
		Amount:  amount,
		Extra:   amount.Sub(remaining),
	})

	s.emitBorrower(ctx, m, borrow)
	return nil
}

// moveSupplierToPool puts the whole p2p supply of account in market back on the pool.
// The p2p borrowers it funded are matched with pool suppliers or pushed to the pool.
func (s *service) moveSupplierToPool(ctx context.Context, address, account common.Address) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"market":  address.Hex(),
		"account": account.Hex(),
	})

	if !s.state.Supply(address, account).InP2P.IsPositive() {
		return nil
	}

	m, r, err := s.market(ctx, address, false)
	if err != nil {
		return err
	}

	supply := s.state.Supply(address, account)
	amount := p2p.ToUnderlying(supply.InP2P, r.p2p)
	supply.InP2P = decimal.Zero
	supply.OnPool = supply.OnPool.Add(p2p.FromUnderlying(amount, r.pool))
	s.state.SetSupply(m, supply, r.pool)

	remaining, err := s.engine.MatchSuppliers(ctx, address, amount, account)
	if err != nil {
		return err
	}

	if remaining.IsPositive() {
		if err := s.engine.UnmatchBorrowers(ctx, address, remaining); err != nil {
			return err
		}
	}

	if amount.IsPositive() {
		if err := s.pool.Mint(ctx, address, amount); err != nil {
			log.WithError(err).Errorln("pool.Mint")
			return fmt.Errorf("pool.Mint: %w", err)
		}
	}

	s.emit(ctx, &core.Event{
		Type:    core.EventSupplierMovedToPool,
		Market:  address,
		Account: account,
		Amount:  amount,
	})

	s.emitSupplier(ctx, m, supply)
	return nil
}
