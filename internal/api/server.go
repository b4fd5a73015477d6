package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server runs an http.Handler until interrupted and shuts it down
// gracefully. Its Run/Interrupt pair plugs into an oklog/run group.
type Server struct {
	srv             *http.Server
	log             *zap.Logger
	shutdownTimeout time.Duration
	listener        net.Listener
}

func NewServer(addr string, h http.Handler, log *zap.Logger, shutdownTimeout time.Duration) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
}

// Listen binds the address ahead of Run so callers can learn the real port.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Run serves until the server is shut down. A clean shutdown returns nil.
func (s *Server) Run() error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}
	s.log.Info("http server listening", zap.String("addr", s.listener.Addr().String()))
	if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Interrupt(error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Error("http server shutdown", zap.Error(err))
		return
	}
	s.log.Info("http server stopped")
}
