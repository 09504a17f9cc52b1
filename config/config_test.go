package config

import (
	"testing"

	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := core.Config{
		Engine:   core.Engine{MaxIterations: -1},
		Managers: []string{"0x00000000000000000000000000000000000000ad"},
	}

	Default(&cfg)
	assert.EqualValues(t, 15, cfg.App.SecondsPerBlock)
	assert.Equal(t, -1, cfg.Engine.MaxIterations, "negative means unbounded and is kept")
	assert.Equal(t, 1000, cfg.Engine.DefaultMaxPopulation)
	assert.True(t, cfg.Engine.CloseFactor.Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, cfg.Engine.LiquidationIncentive.Equal(decimal.NewFromFloat(1.1)))
	assert.Equal(t, 1024, cfg.Oracle.CacheSize)

	admin := common.HexToAddress("0xad")
	assert.Equal(t, admin.Hex(), cfg.Managers[0])
	assert.True(t, cfg.IsManager(admin.Hex()))
	assert.False(t, cfg.IsManager(common.HexToAddress("0xae").Hex()))
}

func TestLoadWithoutFile(t *testing.T) {
	var cfg core.Config
	assert.Nil(t, Load("", &cfg))
	assert.Equal(t, 100, cfg.Engine.MaxIterations)
}
