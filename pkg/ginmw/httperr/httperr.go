// Package httperr maps errors to JSON error responses for gin handlers.
//
// Handlers report failures with c.Error(err) and return; Middleware renders
// the last error as
//
//	{"success": false, "error": <status>, "message": <text>}
//
// Errors choose their status by implementing HTTPStatuser. Context errors map
// to 504 and 499; anything else becomes a 500 whose detail is not exposed.
package httperr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusClientClosedRequest is the non-standard status used when the client
// went away before the response was written.
const StatusClientClosedRequest = 499

// HTTPStatuser allows errors to specify their HTTP status and the message
// shown to clients.
type HTTPStatuser interface {
	StatusCode() int
	Description() string
}

// Coder is implemented by errors that carry a machine-readable code.
// The code is added to the envelope when present.
type Coder interface {
	Code() string
}

// Body is the JSON error envelope.
type Body struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

var messages = map[int]string{
	http.StatusBadRequest:            "bad request",
	http.StatusNotFound:              "resource not found",
	http.StatusMethodNotAllowed:      "method not allowed",
	http.StatusUnprocessableEntity:   "unprocessable",
	http.StatusInternalServerError:   "internal server error",
	http.StatusGatewayTimeout:        "request timed out",
	StatusClientClosedRequest:        "client closed request",
	http.StatusServiceUnavailable:    "service unavailable",
	http.StatusRequestEntityTooLarge: "request entity too large",
}

// Text returns the message used for status when no description is given.
func Text(status int) string {
	if msg, ok := messages[status]; ok {
		return msg
	}
	return http.StatusText(status)
}

// Error is an error carrying an HTTP status. It wraps an optional cause that
// is logged but never sent to clients.
type Error struct {
	status  int
	message string
	cause   error
}

// New returns an *Error for status with the default message.
func New(status int) *Error {
	return &Error{status: status, message: Text(status)}
}

// Wrap returns an *Error for status with the default message and cause.
func Wrap(status int, cause error) *Error {
	return &Error{status: status, message: Text(status), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

// StatusCode implements HTTPStatuser.
func (e *Error) StatusCode() int { return e.status }

// Description implements HTTPStatuser.
func (e *Error) Description() string { return e.message }

// Resolve returns the status and client-facing message for err.
func Resolve(err error) (int, string) {
	var statuser HTTPStatuser
	switch {
	case errors.As(err, &statuser):
		return statuser.StatusCode(), statuser.Description()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, Text(http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, Text(StatusClientClosedRequest)
	default:
		return http.StatusInternalServerError, Text(http.StatusInternalServerError)
	}
}

// Abort writes the error envelope for status and message and stops the chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Body{
		Success: false,
		Error:   status,
		Message: message,
	})
}

// AbortWithError records err on c and writes its envelope.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	render(c, err)
}

func render(c *gin.Context, err error) {
	status, message := Resolve(err)
	body := Body{Success: false, Error: status, Message: message}
	var coder Coder
	if errors.As(err, &coder) {
		body.Code = coder.Code()
	}
	c.AbortWithStatusJSON(status, body)
}

// Middleware renders the last error recorded by downstream handlers when
// they did not write a response themselves.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		if status, _ := Resolve(last.Err); status >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request.Context(), "request error",
				slog.Int("status", status),
				slog.Any("error", last.Err),
			)
		}
		render(c, last.Err)
	}
}

// NoRoute handles unmatched paths.
func NoRoute(c *gin.Context) {
	Abort(c, http.StatusNotFound, Text(http.StatusNotFound))
}

// NoMethod handles known paths requested with an unsupported method.
func NoMethod(c *gin.Context) {
	Abort(c, http.StatusMethodNotAllowed, Text(http.StatusMethodNotAllowed))
}
