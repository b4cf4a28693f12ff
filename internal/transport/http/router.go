// Package http exposes the drinks API over HTTP with gin.
package http

import (
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/deepworx/drinks-api/pkg/ginmw"
	"github.com/deepworx/drinks-api/pkg/ginmw/httperr"
	"github.com/deepworx/drinks-api/pkg/health"
)

// Permissions required by the protected routes.
const (
	PermGetDrinksDetail = "get:drinks-detail"
	PermPostDrinks      = "post:drinks"
	PermPatchDrinks     = "patch:drinks"
	PermDeleteDrinks    = "delete:drinks"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// ServiceName names the HTTP server spans.
	ServiceName string
	CORS        CORSConfig
	Middleware  []ginmw.Option
}

// NewRouter builds the gin engine serving the drinks API, /healthz and the
// gRPC health service.
func NewRouter(h *Handler, authz Authorizer, agg *health.Aggregator, cfg RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(corsMiddleware(cfg.CORS))
	router.Use(ginmw.Default(cfg.Middleware...)...)

	router.NoRoute(httperr.NoRoute)
	router.NoMethod(httperr.NoMethod)

	router.GET("/drinks", h.List)
	router.GET("/drinks-detail", requiresAuth(authz, PermGetDrinksDetail), h.ListDetail)
	router.POST("/drinks", requiresAuth(authz, PermPostDrinks), h.Create)
	router.PATCH("/drinks/:id", requiresAuth(authz, PermPatchDrinks), h.Update)
	router.DELETE("/drinks/:id", requiresAuth(authz, PermDeleteDrinks), h.Delete)

	router.GET("/healthz", healthz(agg))

	interceptor, err := otelconnect.NewInterceptor()
	if err != nil {
		return nil, fmt.Errorf("create otelconnect interceptor: %w", err)
	}
	healthPath, healthHandler := agg.Handler(connect.WithInterceptors(interceptor))
	router.Any(healthPath+"*method", gin.WrapH(healthHandler))

	return router, nil
}

func healthz(agg *health.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := agg.Snapshot()
		status := http.StatusOK
		if !snap.Serving {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, snap)
	}
}
