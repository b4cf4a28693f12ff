// Package ginmw assembles the standard middleware chain for gin routers.
package ginmw

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/deepworx/drinks-api/pkg/ginmw/deadline"
	"github.com/deepworx/drinks-api/pkg/ginmw/httperr"
	"github.com/deepworx/drinks-api/pkg/ginmw/logging"
	"github.com/deepworx/drinks-api/pkg/ginmw/recovery"
	"github.com/deepworx/drinks-api/pkg/ginmw/requestid"
)

// Options configures the middleware chain.
type Options struct {
	deadlineCfg  *deadline.Config
	requestIDCfg *requestid.Config
	logger       *slog.Logger
}

// Option configures the chain builder.
type Option func(*Options)

// WithDeadline overrides the default deadline configuration.
func WithDeadline(cfg deadline.Config) Option {
	return func(o *Options) {
		o.deadlineCfg = &cfg
	}
}

// WithRequestID overrides the default request ID configuration.
func WithRequestID(cfg requestid.Config) Option {
	return func(o *Options) {
		o.requestIDCfg = &cfg
	}
}

// WithLogger sets the access logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.logger = l
	}
}

// Default returns the middleware chain in order: requestid, logging,
// recovery, deadline, httperr. Authorization is not part of the chain;
// protected routes add it themselves.
func Default(opts ...Option) []gin.HandlerFunc {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	requestIDCfg := requestid.DefaultConfig()
	if o.requestIDCfg != nil {
		requestIDCfg = *o.requestIDCfg
	}
	deadlineCfg := deadline.DefaultConfig()
	if o.deadlineCfg != nil {
		deadlineCfg = *o.deadlineCfg
	}

	return []gin.HandlerFunc{
		// ID first so every later log line carries it.
		requestid.New(requestIDCfg),
		// Logging wraps recovery so recovered panics are logged with their 500.
		logging.New(o.logger),
		recovery.New(),
		deadline.New(deadlineCfg),
		httperr.Middleware(),
	}
}
