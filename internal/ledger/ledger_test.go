package ledger

import (
	"context"
	"errors"
	"testing"

	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransferAndRevert(t *testing.T) {
	ctx := context.Background()
	asset := common.HexToAddress("0xa0")
	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")

	l := New()
	l.Mint(asset, alice, decimal.NewFromInt(100))
	l.Finalize()

	id := l.Snapshot()
	assert.Nil(t, l.Transfer(ctx, asset, alice, bob, decimal.NewFromInt(40)))

	err := l.Transfer(ctx, asset, bob, alice, decimal.NewFromInt(41))
	assert.True(t, errors.Is(err, core.ErrInsufficientBalance))

	balance, _ := l.BalanceOf(ctx, asset, bob)
	assert.True(t, balance.Equal(decimal.NewFromInt(40)))

	l.RevertToSnapshot(id)
	balance, _ = l.BalanceOf(ctx, asset, alice)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))
	balance, _ = l.BalanceOf(ctx, asset, bob)
	assert.True(t, balance.IsZero())
}
