package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deepworx/drinks-api/pkg/ctxutil"
	"github.com/deepworx/drinks-api/pkg/ginmw/httperr"
)

// Authorizer decides whether a request may use a permission.
// *jwtauth.Authenticator satisfies it.
type Authorizer interface {
	AuthorizeRequest(r *http.Request, permission string) (ctxutil.Claims, error)
}

// requiresAuth guards a route with permission. On success the verified claims
// are stored in the request context for the handler.
func requiresAuth(authz Authorizer, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authz.AuthorizeRequest(c.Request, permission)
		if err != nil {
			httperr.AbortWithError(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}
