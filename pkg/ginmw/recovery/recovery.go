// Package recovery provides panic recovery for gin handlers.
package recovery

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/deepworx/drinks-api/pkg/ctxutil"
	"github.com/deepworx/drinks-api/pkg/ginmw/httperr"
)

// New creates a middleware that recovers from panics in downstream handlers.
// The panic is logged with its stack trace and the client receives a 500
// error envelope. http.ErrAbortHandler is re-raised so net/http can abort
// the connection.
func New() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(r)
			}
			logPanic(c, r)
			if !c.Writer.Written() {
				httperr.Abort(c, http.StatusInternalServerError, httperr.Text(http.StatusInternalServerError))
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}

func logPanic(c *gin.Context, r any) {
	const stackSize = 4096
	stack := make([]byte, stackSize)
	n := runtime.Stack(stack, false)

	ctx := c.Request.Context()
	attrs := []any{
		slog.String("method", c.Request.Method),
		slog.String("route", c.FullPath()),
		slog.Any("panic", r),
		slog.String("stack", string(stack[:n])),
	}
	if reqID, ok := ctxutil.RequestID(ctx); ok {
		attrs = append(attrs, slog.String("request_id", reqID))
	}

	slog.ErrorContext(ctx, "panic recovered", attrs...)
}
