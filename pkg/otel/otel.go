// Package otel provides OpenTelemetry initialization for tracing, metrics, and logging.
package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/deepworx/drinks-api/pkg/shutdown"
)

// Config holds the configuration for OpenTelemetry setup.
type Config struct {
	// ServiceName is the name of the service. Required.
	ServiceName string `koanf:"service_name"`

	// ServiceVersion is the version of the service.
	ServiceVersion string `koanf:"service_version"`

	// Environment is reported as deployment.environment.
	Environment string `koanf:"environment"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "drinks-api",
		ServiceVersion: "dev",
	}
}

// Validate checks that cfg can describe the service resource.
func (c Config) Validate() error {
	if c.ServiceName == "" {
		return ErrServiceNameRequired
	}
	return nil
}

// Setup initializes OpenTelemetry providers and registers a shutdown handler
// that flushes them. Exporters are configured via OTEL_* environment
// variables; OTEL_*_EXPORTER=none disables a signal.
// Providers created before a failure are shut down before Setup returns.
func Setup(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	var p providers
	if err := p.start(ctx, res); err != nil {
		return errors.Join(err, p.shutdown(ctx))
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(p.tracer)
	otel.SetMeterProvider(p.meter)
	global.SetLoggerProvider(p.logger)

	shutdown.Register("otel", p.shutdown)
	return nil
}

type providers struct {
	tracer *trace.TracerProvider
	meter  *metric.MeterProvider
	logger *log.LoggerProvider
}

func (p *providers) start(ctx context.Context, res *resource.Resource) error {
	var err error
	if p.tracer, err = newTracerProvider(ctx, res); err != nil {
		return fmt.Errorf("create tracer provider: %w", err)
	}
	if p.meter, err = newMeterProvider(ctx, res); err != nil {
		return fmt.Errorf("create meter provider: %w", err)
	}
	if p.logger, err = newLoggerProvider(ctx, res); err != nil {
		return fmt.Errorf("create logger provider: %w", err)
	}
	return nil
}

// shutdown flushes and stops every provider that was created.
func (p *providers) shutdown(ctx context.Context) error {
	var errs []error
	if p.tracer != nil {
		errs = append(errs, p.tracer.Shutdown(ctx))
	}
	if p.meter != nil {
		errs = append(errs, p.meter.Shutdown(ctx))
	}
	if p.logger != nil {
		errs = append(errs, p.logger.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithHost(),
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.DeploymentEnvironment(cfg.Environment)))
	}
	return resource.New(ctx, attrs...)
}

func newTracerProvider(ctx context.Context, res *resource.Resource) (*trace.TracerProvider, error) {
	exp, err := autoexport.NewSpanExporter(ctx)
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(exp),
	), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource) (*metric.MeterProvider, error) {
	reader, err := autoexport.NewMetricReader(ctx)
	if err != nil {
		return nil, err
	}
	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
	), nil
}

func newLoggerProvider(ctx context.Context, res *resource.Resource) (*log.LoggerProvider, error) {
	exp, err := autoexport.NewLogExporter(ctx)
	if err != nil {
		return nil, err
	}
	return log.NewLoggerProvider(
		log.WithResource(res),
		log.WithProcessor(log.NewBatchProcessor(exp)),
	), nil
}
