package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDSNRequired is returned when DSN is empty in Config.
var ErrDSNRequired = errors.New("dsn is required")

// SQLSTATE codes inspected by callers.
const (
	codeUniqueViolation = "23505"
	codeUndefinedTable  = "42P01"
)

// IsUniqueViolation reports whether err carries a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsUndefinedTable reports whether err was caused by a missing table.
func IsUndefinedTable(err error) bool {
	return hasCode(err, codeUndefinedTable)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
