package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/yegors/atc-semframe/internal/config"
	"github.com/yegors/atc-semframe/pkg/logger"
	"golang.org/x/net/netutil"
)

// Server runs the HTTP API with a bounded number of concurrent
// connections.
type Server struct {
	httpServer *http.Server
	cfg        config.ServerConfig
	logger     *logger.Logger
}

// NewServer creates the HTTP server around the router.
func NewServer(cfg config.ServerConfig, handler http.Handler, log *logger.Logger) *Server {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
			IdleTimeout:  2 * timeout,
		},
		cfg:    cfg,
		logger: log.Named("api-server"),
	}
}

// Start listens and serves until Shutdown or a listener error. The
// listener caps concurrent connections at MaxConnections.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	s.logger.Info("API server listening",
		logger.String("addr", s.httpServer.Addr),
		logger.Int("max_connections", s.cfg.MaxConnections))
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
