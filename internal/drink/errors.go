package drink

import "errors"

var (
	// ErrNotFound is returned when no drink has the requested id.
	ErrNotFound = errors.New("drink not found")

	// ErrDuplicateTitle is returned when another drink already uses the title.
	ErrDuplicateTitle = errors.New("drink title already exists")

	// ErrInvalidDrink is returned when a drink fails validation.
	ErrInvalidDrink = errors.New("invalid drink")
)
