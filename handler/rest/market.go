package rest

import (
	"fmt"
	"net/http"

	"p2plend/core"
	"p2plend/handler/render"
	"p2plend/handler/views"
	"p2plend/pkg/registry"

	"github.com/go-chi/chi"
)

func allMarketsHandler(overlay Overlay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		markets := overlay.Markets()

		marketViews := make([]views.Market, 0, len(markets))
		for _, m := range markets {
			marketViews = append(marketViews, getMarketView(overlay, m))
		}

		render.JSON(w, marketViews)
	}
}

func marketHandler(overlay Overlay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := addressParam(r, "address")
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		market, err := overlay.Market(address)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, getMarketView(overlay, market))
	}
}

func registryHandler(overlay Overlay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := addressParam(r, "address")
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		side, ok := parseSide(chi.URLParam(r, "side"))
		if !ok {
			render.BadRequest(w, fmt.Errorf("invalid side %q", chi.URLParam(r, "side")))
			return
		}

		if _, err := overlay.Market(address); err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.RegistryView(overlay.Registry(address, side)))
	}
}

func parseSide(s string) (core.Side, bool) {
	for _, side := range core.Sides {
		if side.String() == s {
			return side, true
		}
	}

	return 0, false
}

func getMarketView(overlay Overlay, market *core.Market) views.Market {
	registries := make(map[core.Side][]registry.Entry, len(core.Sides))
	for _, side := range core.Sides {
		registries[side] = overlay.Registry(market.Address, side)
	}

	return views.MarketView(
		market,
		overlay.Supplies(market.Address),
		overlay.Borrows(market.Address),
		registries,
	)
}
