package position

import (
	"context"

	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
)

type positionStore struct {
	db *db.DB
}

// New new position store
func New(db *db.DB) core.IPositionStore {
	return &positionStore{
		db: db,
	}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		for _, model := range []interface{}{core.SupplyBalance{}, core.BorrowBalance{}, core.EnteredMarket{}} {
			tx := db.Update().Model(model)
			if err := tx.AutoMigrate(model).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveSupply upsert, zero rows are kept and skipped on load
func (s *positionStore) SaveSupply(ctx context.Context, tx *db.DB, supply *core.SupplyBalance) error {
	if e := tx.Update().Where("market=? and account=?", supply.Market, supply.Account).Assign(*supply).FirstOrCreate(supply).Error; e != nil {
		return e
	}

	return nil
}

func (s *positionStore) SaveBorrow(ctx context.Context, tx *db.DB, borrow *core.BorrowBalance) error {
	if e := tx.Update().Where("market=? and account=?", borrow.Market, borrow.Account).Assign(*borrow).FirstOrCreate(borrow).Error; e != nil {
		return e
	}

	return nil
}

func (s *positionStore) SaveEntered(ctx context.Context, tx *db.DB, entered *core.EnteredMarket) error {
	if e := tx.Update().Where("account=? and market=?", entered.Account, entered.Market).Assign(*entered).FirstOrCreate(entered).Error; e != nil {
		return e
	}

	return nil
}

func (s *positionStore) FindSupplies(ctx context.Context, account common.Address) ([]*core.SupplyBalance, error) {
	var supplies []*core.SupplyBalance
	if e := s.db.View().Where("account=?", account).Find(&supplies).Error; e != nil {
		return nil, e
	}

	return supplies, nil
}

func (s *positionStore) FindBorrows(ctx context.Context, account common.Address) ([]*core.BorrowBalance, error) {
	var borrows []*core.BorrowBalance
	if e := s.db.View().Where("account=?", account).Find(&borrows).Error; e != nil {
		return nil, e
	}

	return borrows, nil
}

func (s *positionStore) AllSupplies(ctx context.Context) ([]*core.SupplyBalance, error) {
	var supplies []*core.SupplyBalance
	if e := s.db.View().Find(&supplies).Error; e != nil {
		return nil, e
	}

	return supplies, nil
}

func (s *positionStore) AllBorrows(ctx context.Context) ([]*core.BorrowBalance, error) {
	var borrows []*core.BorrowBalance
	if e := s.db.View().Find(&borrows).Error; e != nil {
		return nil, e
	}

	return borrows, nil
}

func (s *positionStore) AllEntered(ctx context.Context) ([]*core.EnteredMarket, error) {
	var entered []*core.EnteredMarket
	if e := s.db.View().Order("seq").Find(&entered).Error; e != nil {
		return nil, e
	}

	return entered, nil
}
