// Package deadline bounds request handling time for gin handlers.
package deadline

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultHeaderName carries a client-requested timeout as a Go duration ("5s").
const DefaultHeaderName = "X-Request-Timeout"

// Config holds configuration for the deadline middleware.
type Config struct {
	// DefaultTimeout is applied when the request asks for no timeout.
	// Must be positive (> 0).
	DefaultTimeout time.Duration `koanf:"default_timeout"`

	// MaxTimeout caps client-requested timeouts.
	// Zero means no cap is applied.
	// If positive, must be >= DefaultTimeout.
	MaxTimeout time.Duration `koanf:"max_timeout"`

	// HeaderName names the request header read for a client timeout.
	HeaderName string `koanf:"header_name"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: 30 * time.Second,
		MaxTimeout:     300 * time.Second,
		HeaderName:     DefaultHeaderName,
	}
}

// New creates a middleware that attaches a deadline to the request context.
// A valid positive duration in the configured header is honored up to
// MaxTimeout; otherwise DefaultTimeout applies.
//
// Panics if:
//   - DefaultTimeout <= 0
//   - MaxTimeout > 0 && MaxTimeout < DefaultTimeout
func New(cfg Config) gin.HandlerFunc {
	if cfg.DefaultTimeout <= 0 {
		panic("deadline: DefaultTimeout must be positive")
	}
	if cfg.MaxTimeout > 0 && cfg.MaxTimeout < cfg.DefaultTimeout {
		panic("deadline: MaxTimeout must be >= DefaultTimeout when set")
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.timeout(c.GetHeader(cfg.HeaderName)))
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (cfg Config) timeout(requested string) time.Duration {
	if requested == "" {
		return cfg.DefaultTimeout
	}
	d, err := time.ParseDuration(requested)
	if err != nil || d <= 0 {
		return cfg.DefaultTimeout
	}
	if cfg.MaxTimeout > 0 && d > cfg.MaxTimeout {
		return cfg.MaxTimeout
	}
	return d
}
