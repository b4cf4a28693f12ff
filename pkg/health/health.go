// Package health aggregates dependency checks into a readiness status.
//
// Registered checkers are probed in parallel on an interval, each bounded by a
// timeout. The aggregate is serving only if every check passes. Status is
// published through a connectrpc.com/grpchealth checker, both for the overall
// service ("") and per dependency name, and as a Snapshot for JSON endpoints.
package health

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
)

// Checker checks the readiness of a dependency.
type Checker interface {
	// Check returns true if the dependency is ready.
	// The context carries the configured timeout.
	Check(ctx context.Context) bool
}

// CheckerFunc allows simple functions to be used as Checker.
type CheckerFunc func(ctx context.Context) bool

// Check implements Checker.
func (f CheckerFunc) Check(ctx context.Context) bool {
	return f(ctx)
}

// Config holds configuration for the health aggregator.
type Config struct {
	// Interval between health check cycles.
	Interval time.Duration `koanf:"interval"`

	// Timeout for each individual health check.
	Timeout time.Duration `koanf:"timeout"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Interval: 10 * time.Second,
		Timeout:  5 * time.Second,
	}
}

// Snapshot is the result of the latest check cycle.
type Snapshot struct {
	Serving   bool            `json:"serving"`
	Checks    map[string]bool `json:"checks"`
	CheckedAt time.Time       `json:"checked_at"`
}

// Aggregator probes registered checkers and publishes their combined status.
type Aggregator struct {
	cfg    Config
	static *grpchealth.StaticChecker

	mu       sync.RWMutex
	checkers map[string]Checker
	last     Snapshot
}

// NewAggregator creates a new health aggregator.
// The aggregator reports NotServing until the first check cycle completes.
func NewAggregator(cfg Config) *Aggregator {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	static := grpchealth.NewStaticChecker()
	static.SetStatus("", grpchealth.StatusNotServing)

	return &Aggregator{
		cfg:      cfg,
		static:   static,
		checkers: make(map[string]Checker),
		last:     Snapshot{Checks: map[string]bool{}},
	}
}

// Register adds a checker with the given name.
// Returns the Aggregator for method chaining.
// Panics if name is empty or already registered.
func (a *Aggregator) Register(name string, checker Checker) *Aggregator {
	if name == "" {
		panic("health: name cannot be empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[name]; exists {
		panic("health: checker already registered: " + name)
	}

	a.checkers[name] = checker
	a.static.SetStatus(name, grpchealth.StatusNotServing)
	return a
}

// Handler returns the path and handler of the gRPC health service.
func (a *Aggregator) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	return grpchealth.NewHandler(a.static, opts...)
}

// Run probes immediately, then on every interval until ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	a.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.RunOnce(ctx)
		}
	}
}

// IsServing reports the aggregate status of the latest cycle.
func (a *Aggregator) IsServing() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last.Serving
}

// Snapshot returns a copy of the latest cycle's results.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := a.last
	s.Checks = maps.Clone(a.last.Checks)
	return s
}

// RunOnce executes all registered checks in parallel and publishes the result.
func (a *Aggregator) RunOnce(ctx context.Context) {
	a.mu.RLock()
	checkers := maps.Clone(a.checkers)
	a.mu.RUnlock()

	results := make(map[string]bool, len(checkers))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for name, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
			defer cancel()

			healthy := safeCheck(checkCtx, name, checker)

			resultsMu.Lock()
			results[name] = healthy
			resultsMu.Unlock()
		}()
	}
	wg.Wait()

	serving := true
	for _, healthy := range results {
		if !healthy {
			serving = false
			break
		}
	}

	a.publish(serving, results)
}

func safeCheck(ctx context.Context, name string, checker Checker) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "health check panicked",
				slog.String("check", name),
				slog.Any("panic", r),
			)
			healthy = false
		}
	}()

	return checker.Check(ctx)
}

func (a *Aggregator) publish(serving bool, results map[string]bool) {
	a.mu.Lock()
	changed := a.last.Serving != serving
	a.last = Snapshot{Serving: serving, Checks: results, CheckedAt: time.Now()}
	a.mu.Unlock()

	a.static.SetStatus("", status(serving))
	for name, healthy := range results {
		a.static.SetStatus(name, status(healthy))
	}

	if changed {
		slog.Info("health status changed",
			slog.Bool("serving", serving),
			slog.Any("checks", results),
		)
	}
}

func status(ok bool) grpchealth.Status {
	if ok {
		return grpchealth.StatusServing
	}
	return grpchealth.StatusNotServing
}
