package jwtauth

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/deepworx/drinks-api/pkg/ctxutil"
)

// checkPermissions reports whether claims grant permission.
// An empty permission only requires a verified token. The claim is looked up
// by its literal name first, so namespaced names such as
// "https://example.com/permissions" work; dot notation is the fallback.
func checkPermissions(claimName, permission string, claims ctxutil.Claims) error {
	if permission == "" {
		return nil
	}

	raw, ok := claims[claimName]
	if !ok {
		raw, ok = claims.Lookup(claimName)
	}
	if !ok {
		return ErrMissingPermissions
	}

	granted, err := toStringSlice(raw)
	if err != nil {
		return newAuthError(CodeInvalidClaims, http.StatusBadRequest, "permissions claim must be a list of strings")
	}

	if !slices.Contains(granted, permission) {
		return ErrUnauthorized
	}
	return nil
}

// toStringSlice converts a permissions claim value to []string.
// Space-separated strings are accepted so that OAuth "scope" claims can be used.
func toStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result, nil
	case string:
		return strings.Fields(val), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to []string", v)
	}
}
