package sqlite

import (
	"errors"
	"fmt"
)

var (
	// ErrUseAfterClose is returned by every operation on a closed Conn.
	ErrUseAfterClose = errors.New("sqlite: use of closed connection")

	// ErrEmptyResult is returned by QueryScalar when the query produced no rows.
	ErrEmptyResult = errors.New("sqlite: empty result")

	// ErrUnsupportedType is returned when a column is requested as a type
	// outside the registry. It is a programming error and is reported before
	// any SQL runs.
	ErrUnsupportedType = errors.New("sqlite: unsupported column type")

	// ErrColumnIndexOutOfRange is wrapped in a QueryError when a column index
	// does not exist in the result set.
	ErrColumnIndexOutOfRange = errors.New("sqlite: column index out of range")
)

// OpenError reports a failure to open a database file.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("sqlite: open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// QueryError reports a driver failure while executing or reading a query.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("sqlite: query %q: %v", e.SQL, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
