// Package runtime owns the PostgreSQL connection pool and transactional scopes
// that the mappers run their statements on.
package runtime

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDatabase is returned when neither a URL nor a host is configured.
	ErrNoDatabase = errors.New("no database configured")
)

// QueryError represents a statement execution error.
type QueryError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v\nQuery: %s", e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}
