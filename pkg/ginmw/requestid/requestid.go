// Package requestid propagates or generates request IDs for gin handlers.
package requestid

import (
	"encoding/hex"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/deepworx/drinks-api/pkg/ctxutil"
)

// maxLength bounds accepted client IDs; longer values are replaced.
const maxLength = 128

// Config holds configuration for the request ID middleware.
type Config struct {
	// HeaderName is the HTTP header to read request IDs from and echo them in.
	HeaderName string `koanf:"header_name"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		HeaderName: "X-Request-ID",
	}
}

// New creates a middleware that reads the request ID from the configured
// header, or generates one, stores it via ctxutil.WithRequestID, and echoes
// it in the response header.
func New(cfg Config) gin.HandlerFunc {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = DefaultConfig().HeaderName
	}

	return func(c *gin.Context) {
		id := c.GetHeader(headerName)
		if id == "" || len(id) > maxLength {
			id = generateID()
		}

		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), id))
		c.Header(headerName, id)
		c.Next()
	}
}

func generateID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
