// Command drinks-api serves the coffee shop drinks menu.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/deepworx/drinks-api/internal/config"
	"github.com/deepworx/drinks-api/internal/drink"
	"github.com/deepworx/drinks-api/internal/infra/gormstore"
	httptransport "github.com/deepworx/drinks-api/internal/transport/http"
	"github.com/deepworx/drinks-api/pkg/ginmw"
	"github.com/deepworx/drinks-api/pkg/ginmw/deadline"
	"github.com/deepworx/drinks-api/pkg/health"
	"github.com/deepworx/drinks-api/pkg/jwtauth"
	"github.com/deepworx/drinks-api/pkg/otel"
	"github.com/deepworx/drinks-api/pkg/postgres"
	"github.com/deepworx/drinks-api/pkg/shutdown"
	"github.com/deepworx/drinks-api/pkg/slogutil"
)

func main() {
	configPath := flag.String("config", os.Getenv("DRINKS_CONFIG"), "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("drinks-api stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := slogutil.Setup(cfg.Log); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := otel.Setup(ctx, cfg.OTel); err != nil {
		return err
	}

	agg := health.NewAggregator(cfg.Health)

	repo, err := newRepository(ctx, cfg, agg)
	if err != nil {
		_ = shutdown.Shutdown(context.Background())
		return err
	}

	authn, err := jwtauth.NewAuthenticator(ctx, cfg.Auth)
	if err != nil {
		_ = shutdown.Shutdown(context.Background())
		return err
	}
	agg.Register("jwks", health.CheckerFunc(authn.Check))

	gin.SetMode(gin.ReleaseMode)
	router, err := httptransport.NewRouter(
		httptransport.NewHandler(drink.NewService(repo)),
		authn,
		agg,
		httptransport.RouterConfig{
			ServiceName: cfg.OTel.ServiceName,
			CORS:        httptransport.CORSConfig{AllowedOrigins: cfg.CORS.AllowedOrigins},
			Middleware: []ginmw.Option{
				ginmw.WithDeadline(deadline.Config{
					DefaultTimeout: cfg.Server.RequestTimeout,
					MaxTimeout:     cfg.Server.MaxRequestTimeout,
				}),
			},
		},
	)
	if err != nil {
		_ = shutdown.Shutdown(context.Background())
		return err
	}

	srv := httptransport.NewServer(httptransport.ServerConfig{
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}, router)
	shutdown.Register("http", srv.Shutdown)

	go func() {
		if err := agg.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("health aggregator stopped", slog.Any("error", err))
		}
	}()
	shutdown.Register("health", func(context.Context) error {
		cancel()
		return nil
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
		cancel()
	}()

	slog.Info("drinks-api started",
		slog.String("addr", cfg.Server.Addr),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("version", cfg.OTel.ServiceVersion),
	)

	shutdownErr := shutdown.WaitForSignalWithTimeout(ctx, cfg.Server.ShutdownTimeout)
	return errors.Join(<-serveErr, shutdownErr)
}

func newRepository(ctx context.Context, cfg config.Config, agg *health.Aggregator) (drink.Repository, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		slog.Warn("using in-memory storage; drinks are lost on restart")
		return drink.NewMemoryRepository(), nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	agg.Register("postgres", postgres.NewHealthChecker(pool))

	db, err := postgres.OpenGorm(pool)
	if err != nil {
		return nil, err
	}
	return gormstore.NewRepository(db), nil
}
