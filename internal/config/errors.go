package config

import "errors"

var (
	// ErrInvalidStorage is returned when Storage.Driver is not "postgres" or "memory".
	ErrInvalidStorage = errors.New("invalid storage driver")

	// ErrAddrRequired is returned when Server.Addr is empty.
	ErrAddrRequired = errors.New("server.addr is required")

	// ErrInvalidTimeout is returned when the request timeouts are inconsistent.
	ErrInvalidTimeout = errors.New("invalid request timeout")

	// ErrInvalidOrigin is returned for a CORS origin that is neither "*" nor
	// an http(s) URL.
	ErrInvalidOrigin = errors.New("invalid cors origin")
)
