package tonpvp

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"
)

type Server struct {
	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

// Run blocks until the server stops.
func (s *Server) Run(port string, handler http.Handler) error {
	l, err := net.Listen("tcp", "0.0.0.0:"+port)
	if err != nil {
		return err
	}
	return s.Serve(l, handler)
}

// Serve takes ownership of l. WriteTimeout leaves room for an approve call that waits on the
// payout gateway. Once Shutdown was called it returns http.ErrServerClosed without serving.
func (s *Server) Serve(l net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close()
		return http.ErrServerClosed
	}
	s.httpServer = srv
	s.mu.Unlock()

	return srv.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
