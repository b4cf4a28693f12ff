package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/deepworx/drinks-api/pkg/postgres"

type poolGauge struct {
	name        string
	description string
	value       func(*pgxpool.Stat) int64
}

var poolGauges = []poolGauge{
	{
		name:        "db.pool.total_conns",
		description: "Total number of connections in the pool",
		value:       func(s *pgxpool.Stat) int64 { return int64(s.TotalConns()) },
	},
	{
		name:        "db.pool.idle_conns",
		description: "Number of idle connections in the pool",
		value:       func(s *pgxpool.Stat) int64 { return int64(s.IdleConns()) },
	},
	{
		name:        "db.pool.acquired_conns",
		description: "Number of acquired connections in use",
		value:       func(s *pgxpool.Stat) int64 { return int64(s.AcquiredConns()) },
	},
	{
		name:        "db.pool.max_conns",
		description: "Maximum configured connections",
		value:       func(s *pgxpool.Stat) int64 { return int64(s.MaxConns()) },
	},
}

func registerMetrics(pool *pgxpool.Pool) error {
	meter := otel.Meter(meterName)

	for _, g := range poolGauges {
		value := g.value
		_, err := meter.Int64ObservableGauge(
			g.name,
			metric.WithDescription(g.description),
			metric.WithUnit("{connection}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(value(pool.Stat()))
				return nil
			}),
		)
		if err != nil {
			return fmt.Errorf("register %s metric: %w", g.name, err)
		}
	}

	return nil
}
