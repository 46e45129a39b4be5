// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer is the slice of *http.Server the service needs, kept as an
// interface so tests can substitute a mock.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs an HTTP server under suture supervision. It
// reconciles http.Server's blocking ListenAndServe with suture's
// context-driven Serve contract: cancellation triggers a graceful Shutdown
// bounded by shutdownTimeout, and http.ErrServerClosed is not a failure.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server for supervision. shutdownTimeout bounds
// connection draining; zero or negative means 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. A watcher goroutine waits for context
// cancellation and initiates the graceful shutdown; the calling goroutine
// stays blocked in ListenAndServe until the listener closes.
func (s *HTTPServerService) Serve(ctx context.Context) error {
	listenDone := make(chan struct{})
	defer close(listenDone)

	drained := make(chan error, 1)
	go func() {
		select {
		case <-listenDone:
		case <-ctx.Done():
			// The serve context is already canceled; draining gets its
			// own deadline.
			dctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			drained <- s.server.Shutdown(dctx)
		}
	}()

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listener: %w", err)
	}

	if ctx.Err() != nil {
		// Shutdown is in flight; surface its result so a failed drain
		// counts as a service failure rather than a clean stop.
		if derr := <-drained; derr != nil {
			return fmt.Errorf("graceful shutdown: %w", derr)
		}
		return ctx.Err()
	}
	return nil
}

// String names the service in suture's event log.
func (s *HTTPServerService) String() string { return "http-server" }
