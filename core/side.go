package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Side one of the four ranked registries of a market
type Side int

const (
	// SuppliersOnPool suppliers with pool-side balance
	SuppliersOnPool Side = iota
	// SuppliersInP2P suppliers with p2p balance
	SuppliersInP2P
	// BorrowersOnPool borrowers with pool-side debt
	BorrowersOnPool
	// BorrowersInP2P borrowers with p2p debt
	BorrowersInP2P
)

// Sides all registry sides
var Sides = []Side{SuppliersOnPool, SuppliersInP2P, BorrowersOnPool, BorrowersInP2P}

func (s Side) String() string {
	switch s {
	case SuppliersOnPool:
		return "suppliers_on_pool"
	case SuppliersInP2P:
		return "suppliers_in_p2p"
	case BorrowersOnPool:
		return "borrowers_on_pool"
	case BorrowersInP2P:
		return "borrowers_in_p2p"
	default:
		return "unknown"
	}
}

// RegistryEntry persisted row of an ordered position registry
type RegistryEntry struct {
	Market   common.Address  `sql:"type:blob;PRIMARY_KEY" json:"market"`
	Side     Side            `sql:"PRIMARY_KEY" json:"side"`
	Account  common.Address  `sql:"type:blob;PRIMARY_KEY" json:"account"`
	Value    decimal.Decimal `sql:"type:varchar(64)" json:"value"`
	Buffered bool            `json:"buffered"`
	// buffer order, oldest first
	Seq uint64 `json:"seq"`
}

// IRegistryStore registry store interface
type IRegistryStore interface {
	Replace(ctx context.Context, tx *db.DB, market common.Address, side Side, entries []*RegistryEntry) error
	All(ctx context.Context) ([]*RegistryEntry, error)
}
