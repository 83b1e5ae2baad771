// Package server provides the HTTP API for the chat pipeline: routing,
// middleware, and the error envelope contract.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/answer"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/assemble"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/guard"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/metadata"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/otel"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/router"
)

const defaultTimeout = 90 * time.Second

// Server holds all dependencies for the HTTP API. Everything is explicitly
// constructed and injected; nothing is process-global.
type Server struct {
	chiRouter   *chi.Mux
	guard       *guard.Guard
	cache       *metadata.Cache
	intents     *router.Router
	assembler   *assemble.Assembler
	invoker     *answer.Invoker
	global      *rate.Limiter
	corsOrigins []string
	startTime   time.Time

	buildOnce sync.Once
}

// Option configures the Server.
type Option func(*Server)

// WithCORSOrigins sets allowed CORS origins (e.g. ["*"]).
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithGlobalRPS sets the whole-process requests-per-second guard. Zero
// disables it.
func WithGlobalRPS(rps int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.global = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

// NewServer builds a Server with the required pipeline dependencies.
func NewServer(
	g *guard.Guard,
	cache *metadata.Cache,
	intents *router.Router,
	assembler *assemble.Assembler,
	invoker *answer.Invoker,
	opts ...Option,
) *Server {
	s := &Server{
		chiRouter:   chi.NewRouter(),
		guard:       g,
		cache:       cache,
		intents:     intents,
		assembler:   assembler,
		invoker:     invoker,
		corsOrigins: []string{"*"},
		startTime:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler. The mux is built once; chi
// forbids registering middleware after routes, so repeated calls return the
// same handler.
func (s *Server) Routes() http.Handler {
	s.buildOnce.Do(s.buildRoutes)
	return s.chiRouter
}

func (s *Server) buildRoutes() {
	r := s.chiRouter
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otel.MiddlewareWithStatus())
	r.Use(CORSMiddleware(s.corsOrigins))

	r.Get("/health", s.handleHealth)
	r.Get("/v1/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(defaultTimeout))
		r.Use(ClientIDMiddleware())
		r.Use(GlobalRateMiddleware(s.global))
		r.Post("/v1/chat", s.handleChat)
	})
}
