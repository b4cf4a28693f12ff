package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type statusErr struct{}

func (statusErr) Error() string       { return "token expired detail" }
func (statusErr) StatusCode() int     { return http.StatusUnauthorized }
func (statusErr) Description() string { return "token expired" }

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "statuser", err: statusErr{}, wantStatus: 401, wantMessage: "token expired"},
		{name: "wrapped statuser", err: fmt.Errorf("authorize: %w", statusErr{}), wantStatus: 401, wantMessage: "token expired"},
		{name: "httperr not found", err: New(http.StatusNotFound), wantStatus: 404, wantMessage: "resource not found"},
		{name: "httperr with cause", err: Wrap(http.StatusUnprocessableEntity, errors.New("title taken")), wantStatus: 422, wantMessage: "unprocessable"},
		{name: "deadline", err: context.DeadlineExceeded, wantStatus: 504, wantMessage: "request timed out"},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantStatus: 499, wantMessage: "client closed request"},
		{name: "unknown hides detail", err: errors.New("pq: password authentication failed"), wantStatus: 500, wantMessage: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, msg := Resolve(tt.err)
			if status != tt.wantStatus || msg != tt.wantMessage {
				t.Errorf("Resolve() = %d, %q, want %d, %q", status, msg, tt.wantStatus, tt.wantMessage)
			}
		})
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("duplicate title")
	err := Wrap(http.StatusUnprocessableEntity, cause)

	if !errors.Is(err, cause) {
		t.Error("Wrap() should unwrap to cause")
	}
	if err.Error() != "unprocessable: duplicate title" {
		t.Errorf("Error() = %q", err.Error())
	}
	if New(http.StatusTeapot).Description() != http.StatusText(http.StatusTeapot) {
		t.Error("unknown status should fall back to http.StatusText")
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) Body {
	t.Helper()

	var body Body
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		handler     gin.HandlerFunc
		wantStatus  int
		wantMessage string
	}{
		{
			name: "recorded error rendered",
			handler: func(c *gin.Context) {
				_ = c.Error(New(http.StatusNotFound))
			},
			wantStatus:  http.StatusNotFound,
			wantMessage: "resource not found",
		},
		{
			name: "last error wins",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("first"))
				_ = c.Error(New(http.StatusBadRequest))
			},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "bad request",
		},
		{
			name: "internal error sanitized",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("connection reset"))
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := gin.New()
			r.Use(Middleware())
			r.GET("/", tt.handler)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := decodeBody(t, w)
			if body.Success || body.Error != tt.wantStatus || body.Message != tt.wantMessage {
				t.Errorf("body = %+v, want error %d %q", body, tt.wantStatus, tt.wantMessage)
			}
		})
	}
}

func TestMiddleware_WrittenResponseKept(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
		_ = c.Error(errors.New("late"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestNoRouteNoMethod(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(NoRoute)
	r.NoMethod(NoMethod)
	r.GET("/drinks", func(c *gin.Context) {})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/coffee", http.StatusNotFound},
		{http.MethodPut, "/drinks", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != tt.want {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.want)
		}
		if body := decodeBody(t, w); body.Error != tt.want {
			t.Errorf("%s %s body = %+v", tt.method, tt.path, body)
		}
	}
}

type codedErr struct{ statusErr }

func (codedErr) Code() string { return "token_expired" }

func TestAbortWithError_Code(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "coded", err: codedErr{}, wantCode: "token_expired"},
		{name: "wrapped coded", err: fmt.Errorf("authorize: %w", codedErr{}), wantCode: "token_expired"},
		{name: "uncoded", err: statusErr{}, wantCode: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := gin.New()
			r.GET("/", func(c *gin.Context) { AbortWithError(c, tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			body := decodeBody(t, w)
			if body.Code != tt.wantCode || body.Message != "token expired" {
				t.Errorf("body = %+v, want code %q", body, tt.wantCode)
			}
		})
	}
}
