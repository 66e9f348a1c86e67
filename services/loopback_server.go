package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/blogem/deskauth/authenticator"
	"github.com/blogem/deskauth/controllers"
	"github.com/blogem/deskauth/metrics"
	authmiddleware "github.com/blogem/deskauth/middleware"
	"github.com/blogem/deskauth/models"
	"github.com/blogem/deskauth/userctx"
)

// LoopbackServer owns the local listener that receives the provider redirect.
// One server serves one flow.
type LoopbackServer struct {
	port      int
	logger    *zap.Logger
	callbacks *controllers.CallbackController

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	outcomes <-chan models.CallbackOutcome
}

// NewLoopbackServer creates a server for 127.0.0.1:port. Port 0 picks a free port.
func NewLoopbackServer(port int, logger *zap.Logger, m *metrics.Metrics) *LoopbackServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoopbackServer{
		port:      port,
		logger:    logger,
		callbacks: controllers.NewCallbackController(logger, m),
	}
}

// Start installs the handoff for state, binds the listener and serves /callback
// in the background.
func (s *LoopbackServer) Start(ctx context.Context, state string, strict bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return authenticator.ServerError("loopback server already started", nil)
	}

	// The slot exists before the port accepts anything
	outcomes := s.callbacks.Expect(state, strict)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(s.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return authenticator.ServerError(fmt.Sprintf("failed to listen on %s", addr), err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(authmiddleware.WithFlowID(userctx.GetFlowID(ctx)))
	r.Use(authmiddleware.RequestLogger(s.logger))
	r.Use(authmiddleware.LoopbackOnly)
	r.Get("/callback", s.callbacks.Callback)

	server := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.server = server
	s.listener = listener
	s.outcomes = outcomes

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("loopback server stopped", zap.Error(err))
		}
	}()

	s.logger.Debug("loopback server listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start
func (s *LoopbackServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Wait blocks until the first redirect is classified or ctx is done
func (s *LoopbackServer) Wait(ctx context.Context) (models.CallbackOutcome, error) {
	s.mu.Lock()
	outcomes := s.outcomes
	s.mu.Unlock()

	if outcomes == nil {
		return models.CallbackOutcome{}, authenticator.ServerError("loopback server not started", nil)
	}

	select {
	case outcome := <-outcomes:
		return outcome, nil
	case <-ctx.Done():
		return models.CallbackOutcome{}, authenticator.ServerError("stopped waiting for the browser redirect", ctx.Err())
	}
}

// Close shuts the listener down, letting an in-flight response finish. Safe to call more than once.
func (s *LoopbackServer) Close(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		_ = server.Close()
		return fmt.Errorf("failed to shut down loopback server: %w", err)
	}
	return nil
}
