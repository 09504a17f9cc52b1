package registry

import (
	"context"

	"p2plend/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
)

type registryStore struct {
	db *db.DB
}

// New new registry store
func New(db *db.DB) core.IRegistryStore {
	return &registryStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.RegistryEntry{})
		if err := tx.AutoMigrate(core.RegistryEntry{}).Error; err != nil {
			return err
		}

		return nil
	})
}

// Replace overwrites every row of one registry
func (s *registryStore) Replace(ctx context.Context, tx *db.DB, market common.Address, side core.Side, entries []*core.RegistryEntry) error {
	if err := tx.Update().Where("market=? and side=?", market, side).Delete(core.RegistryEntry{}).Error; err != nil {
		return err
	}

	for _, entry := range entries {
		if err := tx.Update().Create(entry).Error; err != nil {
			return err
		}
	}

	return nil
}

func (s *registryStore) All(ctx context.Context) ([]*core.RegistryEntry, error) {
	var entries []*core.RegistryEntry
	if err := s.db.View().Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
