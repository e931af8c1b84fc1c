// Package server assembles the HTTP router and server for esi-proxy.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alexjbarnes/esi-proxy/internal/models"
	"github.com/go-chi/chi/v5"
)

// RouterConfig holds the handlers mounted by NewRouter.
type RouterConfig struct {
	// Prefix is "/"+APP_NAME, or empty to serve from the root.
	Prefix string
	API    http.Handler
	Proxy  http.Handler
	Logger *slog.Logger
}

// NewRouter builds the top-level router. The management API lives under
// Prefix+"/api/ws" and each server variant is proxied under
// Prefix+"/<variant>/".
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware(cfg.Logger))

	r.Mount(cfg.Prefix+"/api/ws", cfg.API)

	for _, st := range models.ServerTypes {
		base := cfg.Prefix + "/" + string(st)
		r.Handle(base, cfg.Proxy)
		r.Handle(base+"/*", cfg.Proxy)
	}

	return r
}

// New returns an http.Server for handler with the same timeouts the
// upstream client is expected to stay within.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
