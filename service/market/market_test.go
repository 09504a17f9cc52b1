package market

import (
	"context"
	"errors"
	"testing"

	"p2plend/core"
	"p2plend/internal/block"
	"p2plend/internal/ledger"
	"p2plend/internal/pool"
	"p2plend/pkg/compound"
	"p2plend/state"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cETH    = common.HexToAddress("0xc0")
	overlay = common.HexToAddress("0xee")
	whale   = common.HexToAddress("0x99")
)

func setup(t *testing.T) (core.IMarketService, *state.State, *block.Manual) {
	ctx := context.Background()
	blocks := block.NewManual(10)
	l := ledger.New()
	p := pool.New(l, blocks, common.HexToAddress("0xff"), overlay)
	require.Nil(t, p.AddMarket(ctx, cETH, compound.Market{
		ReserveFactor: decimal.NewFromFloat(0.1),
		BaseRate:      decimal.NewFromFloat(0.02),
		Multiplier:    decimal.NewFromFloat(0.3),
	}))

	// some utilization so both rates are positive
	l.Mint(cETH, whale, decimal.NewFromInt(1000))
	require.Nil(t, p.SupplyFrom(ctx, cETH, whale, decimal.NewFromInt(1000)))
	require.Nil(t, p.BorrowTo(ctx, cETH, whale, decimal.NewFromInt(400)))

	st := state.New()
	st.PutMarket(&core.Market{
		Address:         cETH,
		IsCreated:       true,
		IsListed:        true,
		ExchangeRate:    decimal.New(1, 0),
		LastUpdateBlock: 10,
	})
	st.Finalize()

	return New(st, p, blocks), st, blocks
}

func TestUpdateExchangeRateIdempotent(t *testing.T) {
	ctx := context.Background()
	srv, st, _ := setup(t)

	rate, err := srv.UpdateExchangeRate(ctx, cETH)
	require.Nil(t, err)
	assert.True(t, rate.Equal(decimal.New(1, 0)))
	assert.True(t, st.Changes().IsEmpty())
	assert.Empty(t, st.PendingEvents())
}

func TestUpdateExchangeRateMonotonic(t *testing.T) {
	ctx := context.Background()
	srv, st, blocks := setup(t)

	prev := decimal.New(1, 0)
	for i := 0; i < 5; i++ {
		blocks.Advance(100)
		rate, err := srv.UpdateExchangeRate(ctx, cETH)
		require.Nil(t, err)
		assert.True(t, rate.GreaterThan(prev))
		prev = rate

		// the second call within the block changes nothing
		again, err := srv.UpdateExchangeRate(ctx, cETH)
		require.Nil(t, err)
		assert.True(t, again.Equal(rate))
	}

	market, _ := st.Market(cETH)
	assert.True(t, market.BlockYield.IsPositive())
	assert.Equal(t, int64(510), market.LastUpdateBlock)
	assert.Len(t, st.PendingEvents(), 5)
}

func TestUpdateExchangeRateErrors(t *testing.T) {
	ctx := context.Background()
	srv, st, blocks := setup(t)

	_, err := srv.UpdateExchangeRate(ctx, common.HexToAddress("0xdead"))
	assert.True(t, errors.Is(err, core.ErrMarketNotFound))

	market, _ := st.Market(cETH)
	market.LastUpdateBlock = 20
	st.PutMarket(market)
	blocks.Set(15)

	_, err = srv.UpdateExchangeRate(ctx, cETH)
	assert.True(t, errors.Is(err, core.ErrInvalidBlock))
}
