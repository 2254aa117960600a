// Package core provides the HTTP chassis for the printbridge service: the
// chi router, cross-cutting middleware (request IDs, panic recovery, request
// logging with header redaction), and the response envelope helpers. Domain
// handlers are mounted onto the chassis by the caller.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"printbridge/internal/config"
)

// Server bundles the router with the dependencies every middleware needs.
type Server struct {
	Config *config.Config
	Logger *slog.Logger

	router *chi.Mux
}

// NewServer builds the chassis with the standard middleware stack mounted.
// Route registration happens afterwards via Router().
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	s := &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}

	// Recoverer must be outermost so panics anywhere in the chain are caught.
	s.router.Use(s.Recoverer)
	s.router.Use(RequestID)
	s.router.Use(RequestLogger(logger, []string{
		"Authorization",
		"X-Printful-Signature",
		"X-Pfy-Signature",
		"CJ-Signature",
		"X-Hmac-Signature",
		"x-nowpayments-sig",
		"X-CC-Webhook-Signature",
		"BTCPay-Sig",
	}))

	return s, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases server-held resources. Database pools are owned by the
// caller (cmd/api) and closed there.
func (s *Server) Shutdown(_ context.Context) error {
	s.Logger.Info("server shutdown complete")
	return nil
}
