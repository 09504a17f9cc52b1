// Package oracle serves underlying prices to the overlay: an http ticker
// feed and a cache pinning one price per market and block.
package oracle

import (
	"context"
	"fmt"

	"p2plend/core"

	"github.com/bluele/gcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Cache prices of oracle per (market, block)
func Cache(oracle core.IOracle, blockSrv core.IBlockService, size int) core.IOracle {
	return &cacheOracle{
		IOracle:  oracle,
		blockSrv: blockSrv,
		cache:    gcache.New(size).LRU().Build(),
		sf:       &singleflight.Group{},
	}
}

type cacheOracle struct {
	core.IOracle
	blockSrv core.IBlockService
	cache    gcache.Cache
	sf       *singleflight.Group
}

func (s *cacheOracle) GetUnderlyingPrice(ctx context.Context, market common.Address) (decimal.Decimal, error) {
	block, err := s.blockSrv.CurrentBlock(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	key := s.priceKey(market, block)
	if v, err := s.cache.Get(key); err == nil {
		if price, ok := v.(decimal.Decimal); ok {
			return price, nil
		}
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		price, err := s.IOracle.GetUnderlyingPrice(ctx, market)
		if err != nil {
			return nil, err
		}

		// zero means no price, ask again next time
		if price.IsPositive() {
			_ = s.cache.Set(key, price)
		}

		return price, nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	return v.(decimal.Decimal), nil
}

func (s *cacheOracle) priceKey(market common.Address, block int64) string {
	return fmt.Sprintf("price:%s:%d", market.Hex(), block)
}
