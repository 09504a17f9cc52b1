package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"p2plend/core"
	"p2plend/handler/render"
	"p2plend/pkg/registry"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi"
)

// Overlay read side of the positions manager
type Overlay interface {
	Markets() []*core.Market
	Market(address common.Address) (*core.Market, error)
	Supplies(market common.Address) []*core.SupplyBalance
	Borrows(market common.Address) []*core.BorrowBalance
	SupplyBalance(market, account common.Address) *core.SupplyBalance
	BorrowBalance(market, account common.Address) *core.BorrowBalance
	EnteredMarkets(account common.Address) []common.Address
	Registry(market common.Address, side core.Side) []registry.Entry
	AccountLiquidity(ctx context.Context, account common.Address) (*core.Liquidity, error)
	Events() []*core.Event
}

// Handle handle rest api request
func Handle(overlay Overlay) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/markets", allMarketsHandler(overlay))
	router.Get("/markets/{address}", marketHandler(overlay))
	router.Get("/markets/{address}/registries/{side}", registryHandler(overlay))
	router.Get("/accounts/{address}", accountHandler(overlay))
	router.Get("/events", eventsHandler(overlay))

	return router
}

func addressParam(r *http.Request, key string) (common.Address, error) {
	v := chi.URLParam(r, key)
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("invalid %s %q", key, v)
	}

	return common.HexToAddress(v), nil
}
