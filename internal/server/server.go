// Package server provides the HTTP API for the Clanky assistant: the chat
// endpoint plus read-only transaction views for the frontend.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Vibebros/sgkb-clanky/internal/assistant"
	"github.com/Vibebros/sgkb-clanky/internal/otel"
	"github.com/Vibebros/sgkb-clanky/internal/store"
)

const defaultTimeout = 60 * time.Second

// chatTimeout bounds one full orchestration run. Three to four LLM round
// trips plus a query can legitimately take a while.
const chatTimeout = 5 * time.Minute

// Server holds all dependencies for the HTTP API.
type Server struct {
	router      *chi.Mux
	engine      *assistant.Engine
	store       *store.Store
	rateLimiter *RateLimiter
	corsOrigins []string
	startTime   time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithRateLimiter sets the request rate limiter (optional).
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.rateLimiter = rl }
}

// WithCORSOrigins sets allowed CORS origins (e.g. ["*"] for local dev).
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// NewServer builds a Server with the required dependencies and optional Option(s).
func NewServer(engine *assistant.Engine, st *store.Store, opts ...Option) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		engine:      engine,
		store:       st,
		corsOrigins: []string{"*"},
		startTime:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler. The chat route runs without
// the default request timeout so its own longer deadline applies.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otel.Middleware())
	r.Use(CORSMiddleware(s.corsOrigins))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(s.rateLimiter))

		r.Post("/api/chat", s.handleChat)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultTimeout))
			r.Get("/api/transactions", s.handleTransactionsList)
			r.Get("/api/transactions/export", s.handleTransactionsExport)
			r.Get("/api/transactions/stats", s.handleStats)
			r.Get("/api/recurring", s.handleRecurring)
		})
	})

	return r
}
