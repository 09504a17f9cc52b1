package cmd

import (
	"p2plend/core"
	"p2plend/internal/ledger"
	"p2plend/internal/oracle"
	"p2plend/internal/pool"
	"p2plend/service/account"
	"p2plend/service/block"
	"p2plend/service/manager"
	marketservice "p2plend/service/market"
	"p2plend/service/matching"
	oracleservice "p2plend/service/oracle"
	"p2plend/service/positions"
	"p2plend/state"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ledger accounts of the simulated collaborators
	overlayAddress = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	poolAddress    = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	whaleAddress   = common.HexToAddress("0x0000000000000000000000000000000000000099")
)

func provideConfig() *core.Config {
	return &cfg
}

func provideBlockService() core.IBlockService {
	return block.New(provideConfig())
}

// providePriceOracle http feed behind a per-block cache, or nil without an endpoint
func providePriceOracle(blockSrv core.IBlockService) core.IOracle {
	if cfg.Oracle.EndPoint == "" {
		return nil
	}

	return oracleservice.Cache(oracleservice.NewFeed(cfg.Oracle.EndPoint), blockSrv, cfg.Oracle.CacheSize)
}

// overlay the manager wired to simulated pool, ledger and oracle
type overlay struct {
	manager *manager.Manager
	state   *state.State
	pool    *pool.Pool
	ledger  *ledger.Ledger
	prices  *oracle.Oracle
	blocks  core.IBlockService
}

// provideOverlay priceOracle nil means prices come from the static oracle
func provideOverlay(
	blockSrv core.IBlockService,
	priceOracle core.IOracle,
	store core.IStateStore,
	reg prometheus.Registerer,
) *overlay {
	config := provideConfig()

	l := ledger.New()
	p := pool.New(l, blockSrv, poolAddress, overlayAddress)
	prices := oracle.New()
	if priceOracle == nil {
		priceOracle = prices
	}

	var metrics *matching.Metrics
	if reg != nil {
		metrics = matching.NewMetrics(reg)
	}

	st := state.New()
	marketService := marketservice.New(st, p, blockSrv)
	accountService := account.New(st, p, priceOracle, marketService)
	engine := matching.New(st, p, config.Engine.MaxIterations, metrics)
	positionsManager := positions.New(overlayAddress, st, p, l, priceOracle, blockSrv, marketService, accountService, engine)

	return &overlay{
		manager: manager.New(config, st, blockSrv, marketService, accountService, positionsManager, store, p, l),
		state:   st,
		pool:    p,
		ledger:  l,
		prices:  prices,
		blocks:  blockSrv,
	}
}
