// Package logging provides structured access logging for gin handlers.
package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deepworx/drinks-api/pkg/ctxutil"
)

// New creates a middleware that logs one record per request once the
// response status is known. Server errors are logged at Error level, client
// errors at Warn and everything else at Info.
// A nil logger means slog.Default().
func New(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log := logger
		if log == nil {
			log = slog.Default()
		}

		ctx := c.Request.Context()
		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if reqID, ok := ctxutil.RequestID(ctx); ok {
			attrs = append(attrs, slog.String("request_id", reqID))
		}
		if userID, ok := ctxutil.UserID(ctx); ok {
			attrs = append(attrs, slog.String("user_id", userID))
		}
		if last := c.Errors.Last(); last != nil {
			attrs = append(attrs, slog.String("error", last.Error()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)
		case status >= http.StatusBadRequest:
			log.LogAttrs(ctx, slog.LevelWarn, "request rejected", attrs...)
		default:
			log.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
		}
	}
}
