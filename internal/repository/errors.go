package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a single-row lookup or update matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrMissingOwner is returned when a row is written without its owning user.
	ErrMissingOwner = errors.New("user id is required")
)

// QueryError wraps a failed backend query or mutation.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// wrap maps gorm's not-found to ErrNotFound and everything else to a QueryError.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return &QueryError{Op: op, Err: err}
}
