// Package state persists the committed overlay state through the market,
// position and registry stores, one database transaction per entry point.
package state

import (
	"context"

	"p2plend/core"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
)

type stateStore struct {
	db         *db.DB
	markets    core.IMarketStore
	positions  core.IPositionStore
	registries core.IRegistryStore
}

// New new state store
func New(
	db *db.DB,
	markets core.IMarketStore,
	positions core.IPositionStore,
	registries core.IRegistryStore,
) core.IStateStore {
	return &stateStore{
		db:         db,
		markets:    markets,
		positions:  positions,
		registries: registries,
	}
}

// Commit writes cs in a single transaction
func (s *stateStore) Commit(ctx context.Context, cs *core.ChangeSet) error {
	log := logger.FromContext(ctx)

	return s.db.Tx(func(tx *db.DB) error {
		for _, market := range cs.Markets {
			if err := s.markets.Save(ctx, tx, market.Clone()); err != nil {
				log.WithError(err).Errorln("markets.Save")
				return err
			}
		}

		for _, supply := range cs.Supplies {
			if err := s.positions.SaveSupply(ctx, tx, supply.Clone()); err != nil {
				log.WithError(err).Errorln("positions.SaveSupply")
				return err
			}
		}

		for _, borrow := range cs.Borrows {
			if err := s.positions.SaveBorrow(ctx, tx, borrow.Clone()); err != nil {
				log.WithError(err).Errorln("positions.SaveBorrow")
				return err
			}
		}

		for _, entered := range cs.Entered {
			if err := s.positions.SaveEntered(ctx, tx, entered); err != nil {
				log.WithError(err).Errorln("positions.SaveEntered")
				return err
			}
		}

		for key, entries := range cs.Registries {
			if err := s.registries.Replace(ctx, tx, key.Market, key.Side, entries); err != nil {
				log.WithError(err).Errorln("registries.Replace")
				return err
			}
		}

		return nil
	})
}

// Load reads the whole committed state
func (s *stateStore) Load(ctx context.Context) (*core.ChangeSet, error) {
	markets, err := s.markets.All(ctx)
	if err != nil {
		return nil, err
	}

	supplies, err := s.positions.AllSupplies(ctx)
	if err != nil {
		return nil, err
	}

	borrows, err := s.positions.AllBorrows(ctx)
	if err != nil {
		return nil, err
	}

	entered, err := s.positions.AllEntered(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.registries.All(ctx)
	if err != nil {
		return nil, err
	}

	return &core.ChangeSet{
		Markets:    markets,
		Supplies:   supplies,
		Borrows:    borrows,
		Entered:    entered,
		Registries: groupRegistries(entries),
	}, nil
}

func groupRegistries(entries []*core.RegistryEntry) map[core.RegistryKey][]*core.RegistryEntry {
	groups := make(map[core.RegistryKey][]*core.RegistryEntry)
	for _, entry := range entries {
		key := core.RegistryKey{Market: entry.Market, Side: entry.Side}
		groups[key] = append(groups[key], entry)
	}

	return groups
}
