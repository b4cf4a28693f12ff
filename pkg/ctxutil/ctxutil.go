// Package ctxutil provides utility functions for storing and retrieving
// request-scoped values in context.Context.
package ctxutil

import (
	"context"
	"strings"
)

// ctxKey is an unexported type for context keys to prevent collisions.
type ctxKey int

const (
	requestIDKey ctxKey = iota
	claimsKey
)

// Claims is the decoded payload of a verified bearer token.
// Values keep the JSON types produced by decoding the token payload:
// strings, float64 numbers, []any arrays and map[string]any objects.
type Claims map[string]any

// Subject returns the "sub" claim.
func (c Claims) Subject() (string, bool) {
	return c.String("sub")
}

// String returns the named claim if it is a string.
func (c Claims) String(name string) (string, bool) {
	v, ok := c[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Lookup retrieves a claim using dot notation (e.g. "realm_access.roles").
func (c Claims) Lookup(path string) (any, bool) {
	if path == "" || c == nil {
		return nil, false
	}

	parts := strings.Split(path, ".")
	current, ok := c[parts[0]]
	if !ok {
		return nil, false
	}

	for _, part := range parts[1:] {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID from the context.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// WithClaims returns a new context with the claims set.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims returns the claims from the context.
func GetClaims(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}

// UserID returns the token subject from the context claims.
func UserID(ctx context.Context) (string, bool) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return "", false
	}
	return claims.Subject()
}
