package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
)

// EnteredMarket membership of an account in a market's entered set
type EnteredMarket struct {
	Account common.Address `sql:"type:blob;PRIMARY_KEY" json:"account"`
	Market  common.Address `sql:"type:blob;PRIMARY_KEY" json:"market"`
	// entry order
	Seq int `json:"seq"`
}

// RegistryKey identifies one registry
type RegistryKey struct {
	Market common.Address
	Side   Side
}

// ChangeSet state written by one committed entry point, or the whole state when loaded
type ChangeSet struct {
	Markets    []*Market
	Supplies   []*SupplyBalance
	Borrows    []*BorrowBalance
	Entered    []*EnteredMarket
	Registries map[RegistryKey][]*RegistryEntry
}

// IsEmpty reports whether nothing changed
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Markets) == 0 &&
		len(cs.Supplies) == 0 &&
		len(cs.Borrows) == 0 &&
		len(cs.Entered) == 0 &&
		len(cs.Registries) == 0
}

// IPositionStore position store interface
type IPositionStore interface {
	SaveSupply(ctx context.Context, tx *db.DB, supply *SupplyBalance) error
	SaveBorrow(ctx context.Context, tx *db.DB, borrow *BorrowBalance) error
	SaveEntered(ctx context.Context, tx *db.DB, entered *EnteredMarket) error
	FindSupplies(ctx context.Context, account common.Address) ([]*SupplyBalance, error)
	FindBorrows(ctx context.Context, account common.Address) ([]*BorrowBalance, error)
	AllSupplies(ctx context.Context) ([]*SupplyBalance, error)
	AllBorrows(ctx context.Context) ([]*BorrowBalance, error)
	AllEntered(ctx context.Context) ([]*EnteredMarket, error)
}

// IStateStore persists committed overlay state
type IStateStore interface {
	Commit(ctx context.Context, cs *ChangeSet) error
	Load(ctx context.Context) (*ChangeSet, error)
}
