package rest

import (
	"fmt"
	"net/http"

	"p2plend/core"
	"p2plend/handler/param"
	"p2plend/handler/render"

	"github.com/ethereum/go-ethereum/common"
)

const defaultEventLimit = 500

func eventsHandler(overlay Overlay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Type    string `json:"type"`
			Market  string `json:"market"`
			Account string `json:"account"`
			Offset  int    `json:"offset"`
			Limit   int    `json:"limit"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		for _, v := range []string{params.Market, params.Account} {
			if v != "" && !common.IsHexAddress(v) {
				render.BadRequest(w, fmt.Errorf("invalid address %q", v))
				return
			}
		}

		limit := params.Limit
		if limit <= 0 {
			limit = defaultEventLimit
		}

		list := make([]core.EventView, 0)
		skipped := 0
		for _, event := range overlay.Events() {
			if params.Type != "" && string(event.Type) != params.Type {
				continue
			}

			if params.Market != "" && event.Market != common.HexToAddress(params.Market) {
				continue
			}

			if params.Account != "" && event.Account != common.HexToAddress(params.Account) {
				continue
			}

			if skipped < params.Offset {
				skipped++
				continue
			}

			list = append(list, event.View())
			if len(list) >= limit {
				break
			}
		}

		render.JSON(w, list)
	}
}
