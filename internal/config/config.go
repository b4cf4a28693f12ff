// Package config loads the drinks-api configuration.
//
// Values are layered, later layers overriding earlier ones:
//
//  1. built-in defaults
//  2. an optional YAML file
//  3. environment variables prefixed DRINKS_, with "__" separating levels
//     (DRINKS_AUTH__AUDIENCE sets auth.audience)
//  4. file:// references, replaced by the referenced file's contents
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/deepworx/drinks-api/pkg/health"
	"github.com/deepworx/drinks-api/pkg/jwtauth"
	"github.com/deepworx/drinks-api/pkg/otel"
	"github.com/deepworx/drinks-api/pkg/postgres"
	"github.com/deepworx/drinks-api/pkg/slogutil"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DRINKS_"

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"auth.algorithms":      true,
	"cors.allowed_origins": true,
}

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig    `koanf:"server"`
	Log      slogutil.Config `koanf:"log"`
	OTel     otel.Config     `koanf:"otel"`
	Storage  StorageConfig   `koanf:"storage"`
	Postgres postgres.Config `koanf:"postgres"`
	Auth     jwtauth.Config  `koanf:"auth"`
	CORS     CORSConfig      `koanf:"cors"`
	Health   health.Config   `koanf:"health"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`

	// RequestTimeout applies to requests without an X-Request-Timeout header.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// MaxRequestTimeout caps client-requested timeouts.
	MaxRequestTimeout time.Duration `koanf:"max_request_timeout"`
}

// StorageConfig selects the drink repository.
type StorageConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `koanf:"driver"`
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
			RequestTimeout:    30 * time.Second,
			MaxRequestTimeout: 2 * time.Minute,
		},
		Log:     slogutil.DefaultConfig(),
		OTel:    otel.DefaultConfig(),
		Storage: StorageConfig{Driver: StoragePostgres},
		Auth:    jwtauth.DefaultConfig(),
		CORS:    CORSConfig{AllowedOrigins: []string{"*"}},
		Health:  health.DefaultConfig(),
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips the file layer.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(defaultsFrom(Default()), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Load(resolveSecrets(k), nil); err != nil {
		return Config{}, fmt.Errorf("resolve secrets: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps DRINKS_AUTH__JWKS_URL to auth.jwks_url.
func envKey(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if listKeys[key] {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}

// Validate checks the whole configuration and reports every problem found.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, ErrAddrRequired)
	}
	if c.Server.RequestTimeout <= 0 || c.Server.MaxRequestTimeout < c.Server.RequestTimeout {
		errs = append(errs, fmt.Errorf("%w: request_timeout %v, max_request_timeout %v",
			ErrInvalidTimeout, c.Server.RequestTimeout, c.Server.MaxRequestTimeout))
	}

	switch c.Storage.Driver {
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, fmt.Errorf("postgres: %w", postgres.ErrDSNRequired))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidStorage, c.Storage.Driver))
	}

	for _, origin := range c.CORS.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidOrigin, origin))
		}
	}

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}
	if err := c.OTel.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("otel: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}
