package config

import (
	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
	configUtil "github.com/fox-one/pkg/config"
	"github.com/shopspring/decimal"
)

const (
	defaultSecondsPerBlock      = 15
	defaultMaxIterations        = 100
	defaultMaxPopulation        = 1000
	defaultOracleCacheSize      = 1024
	defaultLocation             = "Local"
	defaultCloseFactor          = "0.5"
	defaultLiquidationIncentive = "1.1"
)

// Load load config file, env P2PLEND_* overrides it
func Load(configFile string, cfg *core.Config) error {
	configUtil.AutomaticLoadEnv("P2PLEND")
	if configFile != "" {
		if err := configUtil.LoadYaml(configFile, cfg); err != nil {
			return err
		}
	}

	Default(cfg)
	return nil
}

// Default fills zero values and normalizes the manager addresses
func Default(cfg *core.Config) {
	if cfg.App.SecondsPerBlock <= 0 {
		cfg.App.SecondsPerBlock = defaultSecondsPerBlock
	}

	if cfg.App.Location == "" {
		cfg.App.Location = defaultLocation
	}

	if cfg.Engine.MaxIterations == 0 {
		cfg.Engine.MaxIterations = defaultMaxIterations
	}

	if cfg.Engine.DefaultMaxPopulation <= 0 {
		cfg.Engine.DefaultMaxPopulation = defaultMaxPopulation
	}

	if !cfg.Engine.CloseFactor.IsPositive() {
		cfg.Engine.CloseFactor = decimal.RequireFromString(defaultCloseFactor)
	}

	if !cfg.Engine.LiquidationIncentive.IsPositive() {
		cfg.Engine.LiquidationIncentive = decimal.RequireFromString(defaultLiquidationIncentive)
	}

	if cfg.Oracle.CacheSize <= 0 {
		cfg.Oracle.CacheSize = defaultOracleCacheSize
	}

	for idx, manager := range cfg.Managers {
		cfg.Managers[idx] = common.HexToAddress(manager).Hex()
	}
}
