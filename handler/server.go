package handler

import (
	"net/http"

	"p2plend/core"
	"p2plend/handler/hc"
	"p2plend/handler/render"
	"p2plend/handler/rest"

	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/cors"
)

// Server server
type Server struct {
	version  string
	overlay  rest.Overlay
	blockSrv core.IBlockService
}

// New new server function
func New(
	version string,
	overlay rest.Overlay,
	blockSrv core.IBlockService,
) Server {
	return Server{
		version:  version,
		overlay:  overlay,
		blockSrv: blockSrv,
	}
}

// Handler health check under /hc and the rest api under /api
func (s Server) Handler() http.Handler {
	mux := chi.NewMux()
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(logger.WithRequestID)
	mux.Use(middleware.Logger)
	mux.Use(middleware.NewCompressor(5).Handler)

	mux.Mount("/hc", hc.Handle(s.version, func(r *http.Request) (int64, error) {
		return s.blockSrv.CurrentBlock(r.Context())
	}))
	mux.Mount("/api", s.HandleRestAPI())

	return mux
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	r := chi.NewRouter()
	r.Use(render.WrapResponse(true))
	r.Mount("/", rest.Handle(s.overlay))

	return r
}
