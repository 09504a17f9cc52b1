package core

import (
	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Config p2plend config
type Config struct {
	App      App       `json:"app"`
	DB       db.Config `json:"db"`
	Engine   Engine    `json:"engine"`
	Oracle   Oracle    `json:"oracle"`
	Managers []string  `json:"managers"`
}

// IsManager check if the address holds the manager role
func (c *Config) IsManager(address string) bool {
	if len(c.Managers) <= 0 {
		return false
	}

	return govalidator.IsIn(address, c.Managers...)
}

// App app config
type App struct {
	// unix seconds of block 0
	Genesis         int64  `json:"genesis"`
	SecondsPerBlock int64  `json:"seconds_per_block"`
	Location        string `json:"location"`
}

// Oracle price feed config
type Oracle struct {
	EndPoint string `json:"end_point"`
	// 每个 (market, block) 缓存一个价格
	CacheSize int `json:"cache_size"`
}

// Engine matching engine config
type Engine struct {
	// matching steps allowed per call
	MaxIterations int `json:"max_iterations"`
	// NMAX for markets created without one
	DefaultMaxPopulation int `json:"default_max_population"`
	// defaults for created markets
	CloseFactor          decimal.Decimal `json:"close_factor"`
	LiquidationIncentive decimal.Decimal `json:"liquidation_incentive"`
}
