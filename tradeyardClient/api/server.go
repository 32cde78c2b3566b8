// Package api serves read-only HTTP queries over listings, derived
// addresses, the operation journal and metrics.
package api

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Server provides HTTP endpoints
type Server struct {
	market   MarketReader
	journal  OperationLister
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
	server   *http.Server
}

// NewServer creates a new Server instance. journal and gatherer may be nil,
// in which case the operations and metrics endpoints are unavailable.
func NewServer(
	market MarketReader,
	journal OperationLister,
	gatherer prometheus.Gatherer,
	logger zerolog.Logger,
	port int,
) *Server {
	s := &Server{
		market:   market,
		journal:  journal,
		gatherer: gatherer,
		logger:   logger.With().Str("component", "query_server").Logger(),
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("query server is nil")
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind to address %s: %w", s.server.Addr, err)
	}

	go func() {
		err := s.server.Serve(ln)
		switch err {
		case nil:
			s.logger.Info().Msg("query server stopped normally")
		case http.ErrServerClosed:
			s.logger.Info().Msg("query server closed gracefully")
		default:
			s.logger.Error().Err(err).Msg("query server error")
		}
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("query server started")
	return nil
}

// Stop shuts down the HTTP server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
