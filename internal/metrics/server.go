package metrics

import (
	"github.com/buaazp/fasthttprouter"
	fasthttpprometheus "github.com/flf2ko/fasthttp-prometheus"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// Server exposes /metrics and /healthz over fasthttp.
type Server struct {
	Addr   string
	server *fasthttp.Server
}

// NewServer builds the ops server. The Prometheus middleware registers the
// /metrics route on the router itself.
func NewServer(addr, subsystem string) *Server {
	router := fasthttprouter.New()
	router.GET("/healthz", Healthz)

	p := fasthttpprometheus.NewPrometheus(subsystem)
	return &Server{
		Addr: addr,
		server: &fasthttp.Server{
			Handler: p.WrapHandler(router),
			Name:    "stockbot",
		},
	}
}

// Healthz reports liveness.
func Healthz(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString("ok")
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.Addr).Msg("starting ops http server")
		if err := s.server.ListenAndServe(s.Addr); err != nil {
			log.Error().Err(err).Msg("ops http server failure")
		}
	}()
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}
