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

// Supply deposits amount for account, matched against pool borrowers first
//
// an account that owes anything supplies to the pool only, so its collateral stays seizable there
func (s *service) Supply(ctx context.Context, address, account common.Address, amount decimal.Decimal) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"market":  address.Hex(),
		"account": account.Hex(),
	})

	m, r, err := s.market(ctx, address, true)
	if err != nil {
		return err
	}

	if err := requireAmount(amount, m.Threshold); err != nil {
		log.WithError(err).Infoln("supply rejected")
		return err
	}

	if err := s.ledger.Transfer(ctx, address, account, s.self, amount); err != nil {
		log.WithError(err).Errorln("ledger.Transfer")
		return fmt.Errorf("ledger.Transfer: %w", err)
	}

	s.state.Enter(account, address)

	remaining := amount
	if !s.state.HasDebt(account) && s.state.Registry(address, core.BorrowersOnPool).Len() > 0 {
		remaining, err = s.engine.MatchBorrowers(ctx, address, amount)
		if err != nil {
			return err
		}
	}

	supply := s.state.Supply(address, account)
	if matched := amount.Sub(remaining); matched.IsPositive() {
		supply.InP2P = supply.InP2P.Add(p2p.FromUnderlying(matched, r.p2p))
	}

	if remaining.IsPositive() {
		if err := s.pool.Mint(ctx, address, remaining); err != nil {
			log.WithError(err).Errorln("pool.Mint")
			return fmt.Errorf("pool.Mint: %w", err)
		}

		supply.OnPool = supply.OnPool.Add(p2p.FromUnderlying(remaining, r.pool))
	}

	s.state.SetSupply(m, supply, r.pool)
	s.emit(ctx, &core.Event{
		Type:    core.EventSupplied,
		Market:  address,
		Account: account,
		Amount:  amount,
		Extra:   amount.Sub(remaining),
	})

	s.emitSupplier(ctx, m, supply)
	return nil
}

func (s *service) emitSupplier(ctx context.Context, m *core.Market, supply *core.SupplyBalance) {
	s.emit(ctx, &core.Event{
		Type:    core.EventSupplierPositionSync,
		Market:  m.Address,
		Account: supply.Account,
		Amount:  supply.OnPool,
		Extra:   supply.InP2P,
	})
}

func (s *service) emitBorrower(ctx context.Context, m *core.Market, borrow *core.BorrowBalance) {
	s.emit(ctx, &core.Event{
		Type:    core.EventBorrowerPositionSync,
		Market:  m.Address,
		Account: borrow.Account,
		Amount:  borrow.OnPool,
		Extra:   borrow.InP2P,
	})
}
