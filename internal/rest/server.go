// Package rest serves the JSON façade of the EOS bridge. The route surface
// mirrors the catalog operations one-to-one, plus a listener health report
// and session inspection endpoints.
package rest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/eigital/eos-bridge/internal/directory"
)

// Environment switches how much failure detail leaves the process.
type Environment string

const (
	// EnvDevelopment includes panic messages in error responses.
	EnvDevelopment Environment = "development"
	// EnvProduction elides internal failure detail.
	EnvProduction Environment = "production"
)

// readHeaderTimeout caps the wait for request headers.
const readHeaderTimeout = 5 * time.Second

// shutdownTimeout caps graceful shutdown on context cancellation.
const shutdownTimeout = 5 * time.Second

// Config defines the inputs for the REST server.
type Config struct {
	Addr        string
	Environment Environment
}

// Server hosts the bridge REST listener.
type Server struct {
	handler    *handler
	httpServer *http.Server
	addr       string
}

// New builds a configured REST server for the given directory service.
func New(svc directory.Service, cfg Config) (*Server, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("http address is required")
	}
	if cfg.Environment == "" {
		cfg.Environment = EnvProduction
	}

	h := &handler{svc: svc, env: cfg.Environment}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           withMiddleware(h.routes(), cfg.Environment),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return &Server{handler: h, httpServer: httpServer, addr: addr}, nil
}

// Handler returns the fully wired HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	if s == nil || s.httpServer == nil {
		return nil
	}
	return s.httpServer.Handler
}

// Start runs the HTTP server until the context ends.
func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return errors.New("rest server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 1)
	log.Printf("rest listening on %s", s.addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
