package jwtauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/deepworx/drinks-api/pkg/ctxutil"
	"github.com/deepworx/drinks-api/pkg/tracing"
)

const meterName = "github.com/deepworx/drinks-api/pkg/jwtauth"

// Config holds configuration for the Authenticator.
type Config struct {
	// Domain is the identity provider tenant (e.g. "coffee.eu.auth0.com").
	// When set, Issuer defaults to "https://<domain>/" and JWKSURL to
	// "https://<domain>/.well-known/jwks.json".
	Domain string `koanf:"domain"`

	// JWKSURL is the URL of the JSON Web Key Set.
	// Required unless Domain is set.
	JWKSURL string `koanf:"jwks_url"`

	// Issuer is the expected "iss" claim value.
	// Required unless Domain is set.
	Issuer string `koanf:"issuer"`

	// Audience is the expected "aud" claim value.
	// Required.
	Audience string `koanf:"audience"`

	// PermissionsClaim names the claim holding granted permissions.
	// Defaults to "permissions".
	PermissionsClaim string `koanf:"permissions_claim"`

	// Algorithms lists the accepted signature algorithms.
	// Defaults to RS256 only.
	Algorithms []string `koanf:"algorithms"`

	// HTTPTimeout bounds each JWKS fetch.
	// Defaults to 10 seconds if zero.
	HTTPTimeout time.Duration `koanf:"http_timeout"`

	// Leeway allows clock skew tolerance for exp/nbf/iat validation.
	Leeway time.Duration `koanf:"leeway"`
}

// DefaultConfig returns a Config with the optional fields populated.
func DefaultConfig() Config {
	return Config{
		PermissionsClaim: "permissions",
		Algorithms:       []string{"RS256"},
		HTTPTimeout:      10 * time.Second,
	}
}

// Validate checks that the configuration can be used to build an Authenticator.
func (c Config) Validate() error {
	c = c.resolved()
	if c.JWKSURL == "" {
		return ErrJWKSURLRequired
	}
	if c.Issuer == "" {
		return ErrIssuerRequired
	}
	if c.Audience == "" {
		return ErrAudienceRequired
	}
	if _, err := parseAlgorithms(c.Algorithms); err != nil {
		return err
	}
	return nil
}

// resolved returns a copy with derived and default values filled in.
func (c Config) resolved() Config {
	if c.Domain != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(c.Domain, "https://"), "http://")
		host = strings.TrimSuffix(host, "/")
		if c.Issuer == "" {
			c.Issuer = "https://" + host + "/"
		}
		if c.JWKSURL == "" {
			c.JWKSURL = "https://" + host + "/.well-known/jwks.json"
		}
	}
	if c.PermissionsClaim == "" {
		c.PermissionsClaim = "permissions"
	}
	if len(c.Algorithms) == 0 {
		c.Algorithms = []string{"RS256"}
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}

func parseAlgorithms(names []string) (map[string]jwa.SignatureAlgorithm, error) {
	algs := make(map[string]jwa.SignatureAlgorithm, len(names))
	for _, name := range names {
		if strings.EqualFold(name, "none") {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
		}
		alg, ok := jwa.LookupSignatureAlgorithm(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
		}
		algs[alg.String()] = alg
	}
	return algs, nil
}

// keySource yields the current trusted key set.
// Implementations must return a set that is never mutated afterwards.
type keySource interface {
	Lookup(ctx context.Context) (jwk.Set, error)
}

// cachedKeySource serves the key set from a jwk.Cache. The cache refreshes in
// the background and replaces the whole set, so a returned set is a stable
// snapshot.
type cachedKeySource struct {
	cache *jwk.Cache
	url   string
}

func (s *cachedKeySource) Lookup(ctx context.Context) (jwk.Set, error) {
	return s.cache.Lookup(ctx, s.url)
}

// Authenticator verifies bearer tokens and checks their permissions.
// It is safe for concurrent use.
type Authenticator struct {
	keys             keySource
	issuer           string
	audience         string
	permissionsClaim string
	algorithms       map[string]jwa.SignatureAlgorithm
	leeway           time.Duration
	fetchTimeout     time.Duration
	outcomes         metric.Int64Counter
}

// NewAuthenticator creates a new authenticator with the given configuration.
// The ctx controls the lifecycle of the background JWKS refresh goroutine.
// Returns error if the configuration is invalid or the initial JWKS fetch fails.
func NewAuthenticator(ctx context.Context, cfg Config) (*Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}
	cfg = cfg.resolved()

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient(
		httprc.WithHTTPClient(httpClient),
	))
	if err != nil {
		return nil, fmt.Errorf("create jwk cache: %w", err)
	}

	if err := cache.Register(ctx, cfg.JWKSURL); err != nil {
		return nil, fmt.Errorf("register jwks url %s: %w", cfg.JWKSURL, ErrJWKSFetch)
	}

	if _, err := cache.Lookup(ctx, cfg.JWKSURL); err != nil {
		return nil, fmt.Errorf("initial jwks fetch from %s: %w", cfg.JWKSURL, ErrJWKSFetch)
	}

	return newAuthenticator(cfg, &cachedKeySource{cache: cache, url: cfg.JWKSURL})
}

func newAuthenticator(cfg Config, keys keySource) (*Authenticator, error) {
	cfg = cfg.resolved()

	algs, err := parseAlgorithms(cfg.Algorithms)
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}

	outcomes, err := otel.Meter(meterName).Int64Counter(
		"jwtauth.authorizations",
		metric.WithDescription("Authorization decisions by result"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("register authorizations metric: %w", err)
	}

	return &Authenticator{
		keys:             keys,
		issuer:           cfg.Issuer,
		audience:         cfg.Audience,
		permissionsClaim: cfg.PermissionsClaim,
		algorithms:       algs,
		leeway:           cfg.Leeway,
		fetchTimeout:     cfg.HTTPTimeout,
		outcomes:         outcomes,
	}, nil
}

// Authorize runs the full gate: extract the bearer token from header, verify
// it, and check that it grants permission. The first failing step ends the
// pipeline and its *AuthError is returned.
func (a *Authenticator) Authorize(ctx context.Context, header, permission string) (ctxutil.Claims, error) {
	return a.authorize(ctx, permission, func() (string, error) {
		return ExtractBearerToken(header)
	})
}

// AuthorizeRequest is Authorize reading the Authorization header of r.
func (a *Authenticator) AuthorizeRequest(r *http.Request, permission string) (ctxutil.Claims, error) {
	return a.authorize(r.Context(), permission, func() (string, error) {
		return TokenFromRequest(r)
	})
}

func (a *Authenticator) authorize(ctx context.Context, permission string, extract func() (string, error)) (ctxutil.Claims, error) {
	claims, err := tracing.WithSpanResult(ctx, "jwtauth.authorize", func(ctx context.Context) (ctxutil.Claims, error) {
		token, err := extract()
		if err != nil {
			return nil, err
		}
		claims, err := a.Verify(ctx, token)
		if err != nil {
			return nil, err
		}
		if err := a.CheckPermissions(permission, claims); err != nil {
			return nil, err
		}
		return claims, nil
	}, attribute.String("permission", permission))
	a.record(ctx, err)
	return claims, err
}

// CheckPermissions returns nil if claims grant permission.
// It fails with ErrMissingPermissions when the permissions claim is absent
// and ErrUnauthorized when it does not contain permission.
func (a *Authenticator) CheckPermissions(permission string, claims ctxutil.Claims) error {
	return checkPermissions(a.permissionsClaim, permission, claims)
}

// Verify validates the raw token and returns its decoded claims.
// The token header must name a key id present in the key set and an allowed
// algorithm; the signature, expiry, issuer and audience are then validated.
func (a *Authenticator) Verify(ctx context.Context, token string) (ctxutil.Claims, error) {
	msg, err := jws.Parse([]byte(token))
	if err != nil {
		return nil, invalidHeader("unable to parse authentication token")
	}

	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, invalidHeader("authorization malformed")
	}
	headers := sigs[0].ProtectedHeaders()

	kid, ok := headers.KeyID()
	if !ok || kid == "" {
		return nil, invalidHeader("authorization malformed")
	}

	alg, ok := headers.Algorithm()
	if !ok {
		return nil, invalidHeader("authorization malformed")
	}
	allowed, ok := a.algorithms[alg.String()]
	if !ok {
		return nil, invalidHeader("unsupported signing algorithm")
	}

	keyset, err := tracing.WithSpanResult(ctx, "jwtauth.lookup_jwks", func(ctx context.Context) (jwk.Set, error) {
		ctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
		return a.keys.Lookup(ctx)
	})
	if err != nil {
		return nil, invalidHeader("unable to fetch signing keys")
	}

	key, ok := keyset.LookupKeyID(kid)
	if !ok {
		return nil, invalidHeader("unable to find the appropriate key")
	}

	_, err = tracing.WithSpanResult(ctx, "jwtauth.parse_token", func(ctx context.Context) (jwt.Token, error) {
		return jwt.Parse(
			[]byte(token),
			jwt.WithKey(allowed, key),
			jwt.WithValidate(true),
			jwt.WithIssuer(a.issuer),
			jwt.WithAudience(a.audience),
			jwt.WithAcceptableSkew(a.leeway),
		)
	})
	if err != nil {
		return nil, mapJWTError(err)
	}

	return decodeClaims(msg.Payload())
}

// Check reports whether the trusted key set can be loaded.
func (a *Authenticator) Check(ctx context.Context) bool {
	set, err := a.keys.Lookup(ctx)
	return err == nil && set.Len() > 0
}

func mapJWTError(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.TokenExpiredError()):
		return ErrTokenExpired
	case errors.Is(err, jwt.TokenNotYetValidError()), errors.Is(err, jwt.InvalidIssuedAtError()):
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.InvalidIssuerError()), errors.Is(err, jwt.InvalidAudienceError()):
		return ErrInvalidClaims
	default:
		return invalidHeader("unable to parse authentication token")
	}
}

// decodeClaims unmarshals the verified payload as-is.
func decodeClaims(payload []byte) (ctxutil.Claims, error) {
	var claims ctxutil.Claims
	if err := json.Unmarshal(payload, &claims); err != nil || claims == nil {
		return nil, invalidHeader("unable to parse authentication token")
	}
	return claims, nil
}

func (a *Authenticator) record(ctx context.Context, err error) {
	result := "authorized"
	var authErr *AuthError
	if errors.As(err, &authErr) {
		result = authErr.Code()
	}
	a.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
