package market

import (
	"context"
	"fmt"

	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type marketStore struct {
	db *db.DB
}

// New new market store
func New(db *db.DB) core.IMarketStore {
	return &marketStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Market{})
		if err := tx.AutoMigrate(core.Market{}).Error; err != nil {
			return err
		}

		return nil
	})
}

// Save creates or overwrites market
func (s *marketStore) Save(ctx context.Context, tx *db.DB, market *core.Market) error {
	if err := tx.Update().Where("address=?", market.Address).Assign(*market).FirstOrCreate(market).Error; err != nil {
		return err
	}

	return nil
}

func (s *marketStore) Find(ctx context.Context, address common.Address) (*core.Market, error) {
	var market core.Market
	if err := s.db.View().Where("address=?", address).First(&market).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, fmt.Errorf("market %s: %w", address.Hex(), core.ErrMarketNotFound)
		}

		return nil, err
	}

	return &market, nil
}

func (s *marketStore) All(ctx context.Context) ([]*core.Market, error) {
	var markets []*core.Market
	if err := s.db.View().Order("created_at").Find(&markets).Error; err != nil {
		return nil, err
	}

	return markets, nil
}
