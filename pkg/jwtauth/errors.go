// Package jwtauth authorizes HTTP requests carrying bearer tokens issued by an
// external identity provider.
//
// A request passes through three steps: the token is taken from the
// Authorization header, verified against the provider's JSON Web Key Set, and
// its permissions claim is checked for the permission the route requires.
// Every failure is reported as an *AuthError.
package jwtauth

import (
	"errors"
	"net/http"
)

// Error codes carried by AuthError.
const (
	CodeInvalidHeader = "invalid_header"
	CodeInvalidToken  = "invalid_token"
	CodeTokenExpired  = "token_expired"
	CodeInvalidClaims = "invalid_claims"
	CodeUnauthorized  = "unauthorized"
)

// AuthError describes why a request was rejected.
// Values are immutable; use the accessor methods.
type AuthError struct {
	code        string
	description string
	status      int
}

func newAuthError(code string, status int, description string) *AuthError {
	return &AuthError{code: code, description: description, status: status}
}

func invalidHeader(description string) *AuthError {
	return newAuthError(CodeInvalidHeader, http.StatusUnauthorized, description)
}

// Error implements error.
func (e *AuthError) Error() string {
	return e.code + ": " + e.description
}

// Code returns the machine-readable error code, e.g. "invalid_header".
func (e *AuthError) Code() string { return e.code }

// Description returns the human-readable reason.
func (e *AuthError) Description() string { return e.description }

// StatusCode returns the HTTP status to respond with.
func (e *AuthError) StatusCode() int { return e.status }

// Is reports whether target is an *AuthError with the same code and status.
// Descriptions are not compared, so the sentinels below match any error of
// their kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.code == e.code && t.status == e.status
}

// Sentinel errors for matching with errors.Is.
var (
	// ErrInvalidHeader matches a missing or malformed Authorization header,
	// an unparseable or unverifiable token, or an unknown signing key.
	ErrInvalidHeader = invalidHeader("invalid authorization header")

	// ErrTokenNotYetValid matches a token whose nbf or iat lies in the future.
	ErrTokenNotYetValid = newAuthError(CodeInvalidToken, http.StatusUnauthorized, "token not yet valid")

	// ErrTokenExpired matches a token whose exp has passed.
	ErrTokenExpired = newAuthError(CodeTokenExpired, http.StatusUnauthorized, "token expired")

	// ErrInvalidClaims matches a token whose audience or issuer is not trusted.
	ErrInvalidClaims = newAuthError(CodeInvalidClaims, http.StatusUnauthorized, "incorrect claims, please check the audience and issuer")

	// ErrMissingPermissions matches a verified token without a usable permissions claim.
	ErrMissingPermissions = newAuthError(CodeInvalidClaims, http.StatusBadRequest, "permissions not included in token")

	// ErrUnauthorized matches a verified token lacking the required permission.
	ErrUnauthorized = newAuthError(CodeUnauthorized, http.StatusForbidden, "permission not found")
)

// Configuration errors returned by Config.Validate and NewAuthenticator.
var (
	// ErrJWKSURLRequired is returned when neither JWKSURL nor Domain is set.
	ErrJWKSURLRequired = errors.New("jwks_url is required")

	// ErrIssuerRequired is returned when neither Issuer nor Domain is set.
	ErrIssuerRequired = errors.New("issuer is required")

	// ErrAudienceRequired is returned when Audience is empty.
	ErrAudienceRequired = errors.New("audience is required")

	// ErrUnsupportedAlgorithm is returned when Algorithms names an unknown
	// signature algorithm or "none".
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

	// ErrJWKSFetch is returned when the initial JWKS fetch fails.
	ErrJWKSFetch = errors.New("failed to fetch JWKS")
)
