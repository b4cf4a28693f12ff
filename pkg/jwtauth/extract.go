package jwtauth

import (
	"net/http"
	"strings"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "bearer"
)

// ExtractBearerToken returns the credential from an Authorization header value.
// The value must be exactly "<scheme> <token>" separated by a single space,
// with the scheme equal to "bearer" in any case.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", invalidHeader("authorization header is expected")
	}

	parts := strings.Split(header, " ")
	switch {
	case !strings.EqualFold(parts[0], bearerScheme):
		return "", invalidHeader(`authorization header must start with "Bearer"`)
	case len(parts) == 1, parts[1] == "":
		return "", invalidHeader("token not found")
	case len(parts) > 2:
		return "", invalidHeader("authorization header must be bearer token")
	}

	return parts[1], nil
}

// TokenFromRequest extracts the bearer token from r.
// More than one Authorization header is treated as malformed.
func TokenFromRequest(r *http.Request) (string, error) {
	values := r.Header.Values(authorizationHeader)
	switch len(values) {
	case 0:
		return ExtractBearerToken("")
	case 1:
		return ExtractBearerToken(values[0])
	default:
		return "", invalidHeader("multiple authorization headers")
	}
}
