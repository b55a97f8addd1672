package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HTTPService serves an http.Server until stopped, draining in-flight
// requests for up to the shutdown timeout.
type HTTPService struct {
	srv     *http.Server
	timeout time.Duration
	logger  *zap.Logger

	ready chan struct{}
	once  sync.Once
	addr  net.Addr
}

// NewHTTPService wraps srv.
//
// Precondition: srv.Addr is a listen address; timeout > 0.
func NewHTTPService(srv *http.Server, timeout time.Duration, logger *zap.Logger) *HTTPService {
	return &HTTPService{srv: srv, timeout: timeout, logger: logger, ready: make(chan struct{})}
}

// Start listens on srv.Addr and serves until Stop.
func (h *HTTPService) Start() error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return err
	}
	h.addr = ln.Addr()
	h.once.Do(func() { close(h.ready) })
	h.logger.Info("http listening", zap.String("addr", h.addr.String()))
	if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr blocks until the listener is bound and returns its address.
func (h *HTTPService) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-h.ready:
		return h.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop shuts the server down gracefully.
func (h *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		h.logger.Warn("http shutdown incomplete", zap.Error(err))
	}
}

// LoopService runs a background loop that stops when its context is
// cancelled. run must return promptly; the loop itself belongs in a goroutine
// it starts.
type LoopService struct {
	run    func(ctx context.Context)
	ctx    context.Context
	cancel context.CancelFunc
}

// NewLoopService wraps run.
func NewLoopService(run func(ctx context.Context)) *LoopService {
	ctx, cancel := context.WithCancel(context.Background())
	return &LoopService{run: run, ctx: ctx, cancel: cancel}
}

// Start launches the loop and blocks until Stop.
func (l *LoopService) Start() error {
	l.run(l.ctx)
	<-l.ctx.Done()
	return nil
}

// Stop cancels the loop context.
func (l *LoopService) Stop() { l.cancel() }
