package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"promptsmith/app"
	"promptsmith/config"
)

const DefaultAddr = "127.0.0.1:8787"

type Server struct {
	http *http.Server
}

// NewServer creates the HTTP server for a. An empty addr uses DefaultAddr.
func NewServer(a *app.App, addr string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(a),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *Server) Addr() string {
	return s.http.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully. WriteTimeout
// stays unset because streamed completions can run for minutes.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		config.Logf("[API] Listening on %s", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}
