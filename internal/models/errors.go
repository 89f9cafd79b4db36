package models

import "errors"

// ErrMalformedRow is returned when a row read from the database does not
// match the expected schema.
var ErrMalformedRow = errors.New("malformed row")
