package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/deepworx/drinks-api/internal/drink"
	httptransport "github.com/deepworx/drinks-api/internal/transport/http"
	"github.com/deepworx/drinks-api/pkg/ctxutil"
	"github.com/deepworx/drinks-api/pkg/health"
	"github.com/deepworx/drinks-api/pkg/jwtauth"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

const (
	baristaToken = "Bearer barista"
	managerToken = "Bearer manager"
)

// fakeAuthorizer grants permissions per Authorization header value.
type fakeAuthorizer struct {
	grants map[string][]string
}

func (f fakeAuthorizer) AuthorizeRequest(r *http.Request, permission string) (ctxutil.Claims, error) {
	perms, ok := f.grants[r.Header.Get("Authorization")]
	if !ok {
		return nil, jwtauth.ErrInvalidHeader
	}
	if !slices.Contains(perms, permission) {
		return nil, jwtauth.ErrUnauthorized
	}
	return ctxutil.Claims{"sub": "auth0|tester"}, nil
}

func newFakeAuthorizer() fakeAuthorizer {
	return fakeAuthorizer{grants: map[string][]string{
		baristaToken: {httptransport.PermGetDrinksDetail},
		managerToken: {
			httptransport.PermGetDrinksDetail,
			httptransport.PermPostDrinks,
			httptransport.PermPatchDrinks,
			httptransport.PermDeleteDrinks,
		},
	}}
}

type testAPI struct {
	router *gin.Engine
	health *health.Aggregator
}

func newTestAPI(t *testing.T, authz httptransport.Authorizer) *testAPI {
	t.Helper()

	svc := drink.NewService(drink.NewMemoryRepository())
	agg := health.NewAggregator(health.DefaultConfig())
	router, err := httptransport.NewRouter(httptransport.NewHandler(svc), authz, agg, httptransport.RouterConfig{
		CORS: httptransport.CORSConfig{AllowedOrigins: []string{"*"}},
	})
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return &testAPI{router: router, health: agg}
}

func (a *testAPI) do(t *testing.T, method, path, auth, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool              `json:"success"`
	Drinks  []json.RawMessage `json:"drinks"`
	Delete  int64             `json:"delete"`
	Error   int               `json:"error"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return env
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) envelope {
	t.Helper()

	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	env := decode(t, w)
	if env.Success || env.Error != status || env.Message != message {
		t.Errorf("body = %+v, want error %d %q", env, status, message)
	}
	return env
}

const waterBody = `{"title":"Water","recipe":[{"name":"Water","color":"blue","parts":1}]}`

func TestDrinks_Lifecycle(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, newFakeAuthorizer())

	w := api.do(t, http.MethodPost, "/drinks", managerToken, waterBody)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /drinks status = %d, body %s", w.Code, w.Body.String())
	}
	env := decode(t, w)
	if !env.Success || len(env.Drinks) != 1 {
		t.Fatalf("POST /drinks body = %s", w.Body.String())
	}
	var created drink.LongDrink
	if err := json.Unmarshal(env.Drinks[0], &created); err != nil {
		t.Fatalf("decode drink: %v", err)
	}
	if created.ID != 1 || created.Title != "Water" || created.Recipe[0].Name != "Water" {
		t.Errorf("created = %+v", created)
	}

	w = api.do(t, http.MethodGet, "/drinks", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /drinks status = %d", w.Code)
	}
	env = decode(t, w)
	if len(env.Drinks) != 1 {
		t.Fatalf("GET /drinks drinks = %d, want 1", len(env.Drinks))
	}
	if strings.Contains(string(env.Drinks[0]), `"name"`) {
		t.Errorf("GET /drinks exposes ingredient names: %s", env.Drinks[0])
	}
	var short drink.ShortDrink
	if err := json.Unmarshal(env.Drinks[0], &short); err != nil {
		t.Fatalf("decode short drink: %v", err)
	}
	if short.Recipe[0] != (drink.ShortIngredient{Color: "blue", Parts: 1}) {
		t.Errorf("short recipe = %+v", short.Recipe)
	}

	w = api.do(t, http.MethodGet, "/drinks-detail", baristaToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /drinks-detail status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"name":"Water"`) {
		t.Errorf("GET /drinks-detail body = %s, want long form", w.Body.String())
	}

	w = api.do(t, http.MethodPatch, "/drinks/1", managerToken, `{"title":"Sparkling Water"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d, body %s", w.Code, w.Body.String())
	}
	var updated drink.LongDrink
	if err := json.Unmarshal(decode(t, w).Drinks[0], &updated); err != nil {
		t.Fatalf("decode drink: %v", err)
	}
	if updated.Title != "Sparkling Water" || len(updated.Recipe) != 1 {
		t.Errorf("updated = %+v, want new title and unchanged recipe", updated)
	}

	w = api.do(t, http.MethodDelete, "/drinks/1", managerToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", w.Code)
	}
	if env := decode(t, w); !env.Success || env.Delete != 1 {
		t.Errorf("DELETE body = %s", w.Body.String())
	}

	w = api.do(t, http.MethodDelete, "/drinks/1", managerToken, "")
	assertError(t, w, http.StatusNotFound, "resource not found")
}

func TestDrinks_Errors(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, newFakeAuthorizer())
	if w := api.do(t, http.MethodPost, "/drinks", managerToken, waterBody); w.Code != http.StatusOK {
		t.Fatalf("seed status = %d", w.Code)
	}

	tests := []struct {
		name        string
		method      string
		path        string
		auth        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{name: "duplicate title", method: http.MethodPost, path: "/drinks", auth: managerToken, body: waterBody, wantStatus: 422, wantMessage: "unprocessable"},
		{name: "missing title", method: http.MethodPost, path: "/drinks", auth: managerToken, body: `{"recipe":[{"name":"a","color":"b","parts":1}]}`, wantStatus: 422, wantMessage: "unprocessable"},
		{name: "missing recipe", method: http.MethodPost, path: "/drinks", auth: managerToken, body: `{"title":"Juice"}`, wantStatus: 422, wantMessage: "unprocessable"},
		{name: "malformed json", method: http.MethodPost, path: "/drinks", auth: managerToken, body: `{"title":`, wantStatus: 400, wantMessage: "bad request"},
		{name: "patch unknown drink", method: http.MethodPatch, path: "/drinks/42", auth: managerToken, body: `{"title":"x"}`, wantStatus: 404, wantMessage: "resource not found"},
		{name: "patch non-numeric id", method: http.MethodPatch, path: "/drinks/abc", auth: managerToken, body: `{"title":"x"}`, wantStatus: 404, wantMessage: "resource not found"},
		{name: "delete zero id", method: http.MethodDelete, path: "/drinks/0", auth: managerToken, wantStatus: 404, wantMessage: "resource not found"},
		{name: "unknown route", method: http.MethodGet, path: "/cocktails", wantStatus: 404, wantMessage: "resource not found"},
		{name: "unsupported method", method: http.MethodPut, path: "/drinks", auth: managerToken, wantStatus: 405, wantMessage: "method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := api.do(t, tt.method, tt.path, tt.auth, tt.body)
			assertError(t, w, tt.wantStatus, tt.wantMessage)
		})
	}
}

func TestDrinks_Authorization(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, newFakeAuthorizer())

	tests := []struct {
		name       string
		method     string
		path       string
		auth       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "detail without token", method: http.MethodGet, path: "/drinks-detail", wantStatus: 401, wantCode: jwtauth.CodeInvalidHeader},
		{name: "post without permission", method: http.MethodPost, path: "/drinks", auth: baristaToken, body: waterBody, wantStatus: 403, wantCode: jwtauth.CodeUnauthorized},
		{name: "patch without permission", method: http.MethodPatch, path: "/drinks/1", auth: baristaToken, body: `{"title":"x"}`, wantStatus: 403, wantCode: jwtauth.CodeUnauthorized},
		{name: "delete without permission", method: http.MethodDelete, path: "/drinks/1", auth: baristaToken, wantStatus: 403, wantCode: jwtauth.CodeUnauthorized},
		{name: "delete unknown token", method: http.MethodDelete, path: "/drinks/1", auth: "Bearer stranger", wantStatus: 401, wantCode: jwtauth.CodeInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := api.do(t, tt.method, tt.path, tt.auth, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if env := decode(t, w); env.Code != tt.wantCode || env.Success {
				t.Errorf("body = %+v, want code %q", env, tt.wantCode)
			}
		})
	}

	// Rejected requests must not reach the handlers.
	w := api.do(t, http.MethodGet, "/drinks", "", "")
	if env := decode(t, w); len(env.Drinks) != 0 {
		t.Errorf("drinks after rejected requests = %d, want 0", len(env.Drinks))
	}
}

func TestDrinks_RecipeObject(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, newFakeAuthorizer())
	w := api.do(t, http.MethodPost, "/drinks", managerToken, `{"title":"Milk","recipe":{"name":"milk","color":"white","parts":1}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var created drink.LongDrink
	if err := json.Unmarshal(decode(t, w).Drinks[0], &created); err != nil {
		t.Fatalf("decode drink: %v", err)
	}
	if len(created.Recipe) != 1 || created.Recipe[0].Name != "milk" {
		t.Errorf("recipe = %+v, want single milk ingredient", created.Recipe)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, newFakeAuthorizer())

	req := httptest.NewRequest(http.MethodGet, "/drinks", nil)
	req.Header.Set("Origin", "http://localhost:8100")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/drinks/1", nil)
	req.Header.Set("Origin", "http://localhost:8100")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPatch) {
		t.Errorf("Access-Control-Allow-Methods = %q, want PATCH", got)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, newFakeAuthorizer())
	healthy := true
	api.health.Register("jwks", health.CheckerFunc(func(context.Context) bool { return healthy }))

	if w := api.do(t, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status before first check = %d, want 503", w.Code)
	}

	api.health.RunOnce(context.Background())

	w := api.do(t, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var snap health.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if !snap.Serving || !snap.Checks["jwks"] {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, newFakeAuthorizer())

	req := httptest.NewRequest(http.MethodGet, "/drinks", nil)
	req.Header.Set("X-Request-ID", "order-17")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "order-17" {
		t.Errorf("X-Request-ID = %q, want order-17", got)
	}
}
