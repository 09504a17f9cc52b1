package rest

import (
	"net/http"

	"p2plend/handler/render"
	"p2plend/handler/views"
)

func accountHandler(overlay Overlay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		account, err := addressParam(r, "address")
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		liquidity, err := overlay.AccountLiquidity(ctx, account)
		if err != nil {
			render.Error(w, err)
			return
		}

		view := views.Account{
			Address:      account,
			Entered:      []string{},
			Positions:    []views.Position{},
			Liquidity:    liquidity,
			Solvent:      liquidity.Solvent(),
			Liquidatable: liquidity.Liquidatable(),
		}

		for _, address := range overlay.EnteredMarkets(account) {
			view.Entered = append(view.Entered, address.Hex())
		}

		for _, market := range overlay.Markets() {
			position := views.Position{
				Market: market.Address,
				Symbol: market.Symbol,
			}

			if s := overlay.SupplyBalance(market.Address, account); !s.IsZero() {
				position.Supply = s
			}

			if b := overlay.BorrowBalance(market.Address, account); !b.IsZero() {
				position.Borrow = b
			}

			if position.Supply != nil || position.Borrow != nil {
				view.Positions = append(view.Positions, position)
			}
		}

		render.JSON(w, view)
	}
}
