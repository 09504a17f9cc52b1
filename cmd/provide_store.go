package cmd

import (
	"p2plend/core"
	"p2plend/store/market"
	"p2plend/store/position"
	"p2plend/store/registry"
	"p2plend/store/state"

	"github.com/fox-one/pkg/store/db"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideMarketStore(db *db.DB) core.IMarketStore {
	return market.New(db)
}

func providePositionStore(db *db.DB) core.IPositionStore {
	return position.New(db)
}

func provideRegistryStore(db *db.DB) core.IRegistryStore {
	return registry.New(db)
}

func provideStateStore(db *db.DB) core.IStateStore {
	return state.New(db, provideMarketStore(db), providePositionStore(db), provideRegistryStore(db))
}
