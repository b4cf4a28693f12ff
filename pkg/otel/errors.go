package otel

import "errors"

// ErrServiceNameRequired is returned when Config.ServiceName is empty.
var ErrServiceNameRequired = errors.New("service_name is required")
