// Package httpapi exposes the read surfaces the surrounding
// application consumes: commanders with decklists, price history, and
// alert list/dismiss. Dismiss is the only write.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Server struct {
	addr     string
	handlers *Handlers
	logger   *zap.Logger
	server   *http.Server
}

func NewServer(addr string, handlers *Handlers, logger *zap.Logger) *Server {
	return &Server{addr: addr, handlers: handlers, logger: logger}
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handlers.Health)
	mux.HandleFunc("GET /commanders", s.handlers.ListCommanders)
	mux.HandleFunc("GET /commanders/{id}", s.handlers.GetCommander)
	mux.HandleFunc("GET /cards/{cardID}/prices", s.handlers.PriceHistory)
	mux.HandleFunc("GET /alerts", s.handlers.ListAlerts)
	mux.HandleFunc("POST /alerts/{id}/dismiss", s.handlers.DismissAlert)

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", zap.String("addr", s.addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
