package core

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// SupplyBalance supply position of an account in a market
type SupplyBalance struct {
	Market  common.Address `sql:"type:blob;PRIMARY_KEY" json:"market"`
	Account common.Address `sql:"type:blob;PRIMARY_KEY" json:"account"`
	// pool share units (ctokens)
	OnPool decimal.Decimal `sql:"type:varchar(64)" json:"on_pool"`
	// p2p units
	InP2P     decimal.Decimal `gorm:"column:in_p2p" sql:"type:varchar(64)" json:"in_p2p"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IsZero reports whether the position is empty
func (s *SupplyBalance) IsZero() bool {
	return !s.OnPool.IsPositive() && !s.InP2P.IsPositive()
}

// Clone returns a copy of the balance
func (s *SupplyBalance) Clone() *SupplyBalance {
	c := *s
	return &c
}
