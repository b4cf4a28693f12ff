// Package shutdown orchestrates graceful service shutdown.
//
// Components register named cleanup handlers as they start; on SIGINT or
// SIGTERM the handlers run in reverse registration order so that the HTTP
// server stops before the database pool and telemetry providers it uses.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// DefaultShutdownTimeout is the default time allowed for graceful shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// Handler is called during shutdown with the provided context.
type Handler func(ctx context.Context) error

type entry struct {
	name string
	fn   Handler
}

// Registry holds shutdown handlers. The zero value is ready to use.
type Registry struct {
	mu       sync.Mutex
	handlers []entry
}

// Register adds a named handler. Handlers are called in LIFO order.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, entry{name: name, fn: h})
}

// Len returns the number of pending handlers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}

// Shutdown executes all registered handlers in LIFO order and clears the
// registry. Every handler runs even if an earlier one fails; failures are
// logged and returned joined, each wrapped with its handler name.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	pending := r.handlers
	r.handlers = nil
	r.mu.Unlock()

	var errs []error
	for i := len(pending) - 1; i >= 0; i-- {
		h := pending[i]
		start := time.Now()
		if err := h.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "shutdown handler failed",
				slog.String("handler", h.name),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("shutdown %s: %w", h.name, err))
			continue
		}
		slog.DebugContext(ctx, "shutdown handler completed",
			slog.String("handler", h.name),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return errors.Join(errs...)
}

// WaitForSignal blocks until SIGINT or SIGTERM is received or ctx is done,
// then calls Shutdown with a fresh context bounded by timeout.
func (r *Registry) WaitForSignal(ctx context.Context, timeout time.Duration) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	slog.Info("shutting down", slog.Duration("timeout", timeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return r.Shutdown(shutdownCtx)
}

var std Registry

// Register adds a named handler to the process-wide registry.
func Register(name string, h Handler) {
	std.Register(name, h)
}

// Shutdown runs the process-wide registry.
func Shutdown(ctx context.Context) error {
	return std.Shutdown(ctx)
}

// WaitForSignal waits on the process-wide registry with DefaultShutdownTimeout.
func WaitForSignal(ctx context.Context) error {
	return std.WaitForSignal(ctx, DefaultShutdownTimeout)
}

// WaitForSignalWithTimeout waits on the process-wide registry with timeout.
func WaitForSignalWithTimeout(ctx context.Context, timeout time.Duration) error {
	return std.WaitForSignal(ctx, timeout)
}
