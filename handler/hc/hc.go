package hc

import (
	"net/http"
	"time"

	"p2plend/handler/render"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// Handle handle hc request
func Handle(ver string, block BlockFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoCache)
	r.Handle("/", handle(ver, block))
	return r
}

// BlockFunc current block, nil when the block clock is not wired
type BlockFunc func(r *http.Request) (int64, error)

func handle(version string, block BlockFunc) http.HandlerFunc {
	b := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(b).Truncate(time.Millisecond)
		resp := render.H{
			"uptime":  uptime.String(),
			"version": version,
		}

		if block != nil {
			current, err := block(r)
			if err != nil {
				render.Error(w, err)
				return
			}

			resp["block"] = current
		}

		render.JSON(w, resp)
	}
}
