package core

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Market overlay market info, one per pool token
type Market struct {
	Address common.Address `sql:"type:blob;PRIMARY_KEY" json:"address"`
	Symbol  string         `sql:"size:20" json:"symbol"`
	// 是否已创建
	IsCreated bool `json:"is_created"`
	// 是否可用, 下架后不可 supply/borrow
	IsListed bool `json:"is_listed"`
	// 抵押因子 (0, 1], 可借贷价值 / 抵押资产价值
	CollateralFactor decimal.Decimal `sql:"type:varchar(64)" json:"collateral_factor"`
	// 清算人单次最大可清算的债务比例
	CloseFactor decimal.Decimal `sql:"type:varchar(64)" json:"close_factor"`
	// 清算激励 (> 1), 例如 1.1
	LiquidationIncentive decimal.Decimal `sql:"type:varchar(64)" json:"liquidation_incentive"`
	// midrate per block, (supplyRate + borrowRate) / 2
	BlockYield decimal.Decimal `sql:"type:varchar(64)" json:"block_yield"`
	// p2p unit -> underlying
	ExchangeRate    decimal.Decimal `sql:"type:varchar(64)" json:"exchange_rate"`
	LastUpdateBlock int64           `json:"last_update_block"`
	// 最小仓位, 低于此值的 pool 仓位不参与撮合
	Threshold decimal.Decimal `sql:"type:varchar(64)" json:"threshold"`
	// NMAX, registry 最大容量
	MaxPopulation int       `json:"max_population"`
	Version       int64     `sql:"default:0" json:"version"`
	CreatedAt     time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Clone returns a copy of the market
func (m *Market) Clone() *Market {
	c := *m
	return &c
}

// IMarketStore market store interface
type IMarketStore interface {
	Save(ctx context.Context, tx *db.DB, market *Market) error
	Find(ctx context.Context, address common.Address) (*Market, error)
	All(ctx context.Context) ([]*Market, error)
}

// IMarketService exchange rate accrual
type IMarketService interface {
	// UpdateExchangeRate compounds the midrate since the last update block and returns the fresh rate
	UpdateExchangeRate(ctx context.Context, market common.Address) (decimal.Decimal, error)
}
