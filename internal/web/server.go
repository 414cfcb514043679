// Package web hosts the HTTP surface of the voucher service: the JSON API
// consumed by the pages and the server-rendered pages themselves. All
// requests arrive through the upstream access proxy, which injects the
// caller's identity headers.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/voucherbox/internal/identity"
	"github.com/louisbranch/voucherbox/internal/voucher/service"
)

// Config defines the inputs for the web server.
type Config struct {
	HTTPAddr string
	Resolver *identity.Resolver
	Vouchers *service.VoucherService
}

// Server hosts the voucher HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewServer builds a configured web server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.Resolver == nil {
		return nil, errors.New("identity resolver is required")
	}
	if config.Vouchers == nil {
		return nil, errors.New("voucher service is required")
	}

	handler := NewHandler(config.Resolver, config.Vouchers)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		httpAddr:   httpAddr,
		httpServer: httpServer,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 1)
	log.Printf("voucher service listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
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
