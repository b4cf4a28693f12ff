package postgres

import (
	"context"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker checks PostgreSQL connectivity.
// Implements health.Checker.
type HealthChecker struct {
	db Pinger
}

// NewHealthChecker creates a health checker for the given pool.
func NewHealthChecker(db Pinger) *HealthChecker {
	return &HealthChecker{db: db}
}

// Check returns true if the database is reachable.
func (c *HealthChecker) Check(ctx context.Context) bool {
	if c.db == nil {
		return false
	}
	return c.db.Ping(ctx) == nil
}
