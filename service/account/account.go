package account

import (
	"context"
	"fmt"

	"p2plend/core"
	"p2plend/pkg/p2p"
	"p2plend/state"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

type accountService struct {
	state         *state.State
	pool          core.IPool
	oracle        core.IOracle
	marketService core.IMarketService
}

// New new account service
func New(
	st *state.State,
	pool core.IPool,
	oracle core.IOracle,
	marketService core.IMarketService,
) core.IAccountService {
	return &accountService{
		state:         st,
		pool:          pool,
		oracle:        oracle,
		marketService: marketService,
	}
}

// ComputeBalances sums debt, borrowing capacity and collateral of account over its entered markets
//
// debt = borrow.on_pool * pool.borrow_index + borrow.in_p2p * market.exchange_rate
// collateral = supply.on_pool * pool.exchange_rate + supply.in_p2p * market.exchange_rate
// max_debt = sum(collateral * price * collateral_factor)
func (s *accountService) ComputeBalances(ctx context.Context, account, market common.Address, withdraw, borrow decimal.Decimal) (*core.Liquidity, error) {
	log := logger.FromContext(ctx).WithField("account", account.Hex())

	markets := s.state.EnteredMarkets(account)
	if market != (common.Address{}) && !contains(markets, market) {
		markets = append(markets, market)
	}

	liquidity := &core.Liquidity{
		DebtValue:       decimal.Zero,
		MaxDebtValue:    decimal.Zero,
		CollateralValue: decimal.Zero,
	}

	for _, address := range markets {
		m, ok := s.state.Market(address)
		if !ok {
			return nil, fmt.Errorf("market %s: %w", address.Hex(), core.ErrMarketNotFound)
		}

		p2pRate, err := s.marketService.UpdateExchangeRate(ctx, address)
		if err != nil {
			return nil, err
		}

		poolRate, err := s.pool.ExchangeRateCurrent(ctx, address)
		if err != nil {
			log.WithError(err).Errorln("pool.ExchangeRateCurrent")
			return nil, fmt.Errorf("pool.ExchangeRateCurrent: %w", err)
		}

		borrowIndex, err := s.pool.BorrowIndex(ctx, address)
		if err != nil {
			log.WithError(err).Errorln("pool.BorrowIndex")
			return nil, fmt.Errorf("pool.BorrowIndex: %w", err)
		}

		price, err := s.oracle.GetUnderlyingPrice(ctx, address)
		if err != nil {
			log.WithError(err).Errorln("oracle.GetUnderlyingPrice")
			return nil, fmt.Errorf("oracle.GetUnderlyingPrice: %w", err)
		}

		if err := p2p.Require(price.IsPositive(), "account/oracle-price-zero", core.ErrInvalidPrice); err != nil {
			log.WithError(err).Errorf("market %s", m.Symbol)
			return nil, err
		}

		supply := s.state.Supply(address, account)
		debt := s.state.Borrow(address, account)

		debtAmount := p2p.ToUnderlying(debt.OnPool, borrowIndex).Add(p2p.ToUnderlying(debt.InP2P, p2pRate))
		collateralAmount := p2p.ToUnderlying(supply.OnPool, poolRate).Add(p2p.ToUnderlying(supply.InP2P, p2pRate))

		if address == market {
			debtAmount = debtAmount.Add(borrow)
			collateralAmount = p2p.Sub(collateralAmount, withdraw)
		}

		collateralValue := collateralAmount.Mul(price).Truncate(p2p.Precision)
		liquidity.DebtValue = liquidity.DebtValue.Add(debtAmount.Mul(price).Truncate(p2p.Precision))
		liquidity.CollateralValue = liquidity.CollateralValue.Add(collateralValue)
		liquidity.MaxDebtValue = liquidity.MaxDebtValue.Add(collateralValue.Mul(m.CollateralFactor).Truncate(p2p.Precision))
	}

	return liquidity, nil
}

func contains(markets []common.Address, market common.Address) bool {
	for _, m := range markets {
		if m == market {
			return true
		}
	}

	return false
}
