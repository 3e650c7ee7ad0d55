package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server the gateway-facing HTTP listener; one gateway keeps a few long-lived connections
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// image payloads arrive base64 encoded in the body
		ReadTimeout: 30 * time.Second,
		// covers a classification call plus the ledger write
		WriteTimeout:   90 * time.Second,
		IdleTimeout:    2 * time.Minute,
		MaxHeaderBytes: 64 << 10,
	}
	return &Server{httpServer: s, logger: logger}
}

// Start blocks until the listener fails or Stop is called; a stop is not an error
func (s *Server) Start() error {
	s.logger.Info("Starting catat-worker HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping catat-worker HTTP server")
	return s.httpServer.Shutdown(ctx)
}
