package store

import "errors"

var (
	// ErrUnavailable means no database connection could be obtained.
	ErrUnavailable = errors.New("database unavailable")
	// ErrQuery means a statement failed to execute or its rows could not be read.
	ErrQuery = errors.New("query failed")
)
