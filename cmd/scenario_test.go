package cmd

import (
	"context"
	"strings"
	"testing"

	"p2plend/config"
	"p2plend/core"
	"p2plend/internal/block"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOverlay(t *testing.T, s *Scenario) (*overlay, *prometheus.Registry) {
	cfg = core.Config{Managers: []string{s.Admin}}
	config.Default(&cfg)

	reg := prometheus.NewRegistry()
	ov := provideOverlay(block.NewManual(s.Block), nil, nil, reg)
	require.Nil(t, ov.setup(context.Background(), s))
	return ov, reg
}

func TestLiquidationScenario(t *testing.T) {
	s, err := loadScenario("../scenarios/liquidation.yaml")
	require.Nil(t, err)
	require.Len(t, s.Markets, 2)
	require.Len(t, s.Steps, 7)

	ov, _ := newTestOverlay(t, s)
	require.Nil(t, ov.run(context.Background(), s))

	alice := common.HexToAddress("0x01")
	cDAI := common.HexToAddress("0xc2")
	debt := ov.manager.BorrowBalance(cDAI, alice).OnPool
	assert.True(t, debt.GreaterThan(d("399")) && debt.LessThan(d("401")), debt.String())

	events := ov.manager.Events()
	assert.Equal(t, core.EventLiquidated, events[len(events)-1].Type)

	report := strings.Join(ov.report(context.Background()), "\n")
	assert.Contains(t, report, "cDAI listed=true")
	assert.Contains(t, report, "account "+alice.Hex())
}

const matchScenario = `
block: 10
admin: "0xad"
markets:
  - {address: "0xc1", symbol: cUSDC, price: "1", liquidity: "100000", collateral_factor: "0.75"}
  - {address: "0xc2", symbol: cDAI, price: "1", liquidity: "100000", collateral_factor: "0.75"}
accounts:
  "0x01": {"0xc2": "1000"}
  "0x02": {"0xc1": "1000"}
steps:
  - {op: supply, market: "0xc1", account: "0x02", amount: 1000}
  - {op: borrow, market: "0xc2", account: "0x02", amount: 300}
  - {op: supply, market: "0xc2", account: "0x01", amount: 500}
  - {op: threshold, market: "0xc2", amount: 50}
  - {op: withdraw, market: "0xc2", account: "0x01", amount: 10, expect: "below threshold"}
  - {op: delist, market: "0xc2"}
  - {op: supply, market: "0xc2", account: "0x01", amount: 100, expect: "not listed"}
  - {op: repay, market: "0xc2", account: "0x02", amount: 300}
`

func TestMatchScenario(t *testing.T) {
	s, err := parseScenario([]byte(matchScenario))
	require.Nil(t, err)

	ov, reg := newTestOverlay(t, s)
	require.Nil(t, ov.run(context.Background(), s))

	alice := common.HexToAddress("0x01")
	cDAI := common.HexToAddress("0xc2")
	supply := ov.manager.SupplyBalance(cDAI, alice)
	assert.True(t, supply.OnPool.Equal(d("500")))
	assert.True(t, supply.InP2P.IsZero())

	n, err := testutil.GatherAndCount(reg, "p2plend_matching_volume_total")
	require.Nil(t, err)
	assert.True(t, n > 0)
}

func TestScenarioErrors(t *testing.T) {
	_, err := parseScenario([]byte("block: 1"))
	assert.NotNil(t, err)

	s, err := parseScenario([]byte(matchScenario))
	require.Nil(t, err)
	ov, _ := newTestOverlay(t, s)

	s.Steps = []map[string]interface{}{{"op": "teleport"}}
	assert.NotNil(t, ov.run(context.Background(), s))

	s.Steps = []map[string]interface{}{{"op": "supply", "market": "0xc2", "account": "0x01", "amount": 10, "expect": "not listed"}}
	assert.NotNil(t, ov.run(context.Background(), s), "succeeded despite expect")
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
