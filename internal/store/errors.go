// Package store holds the failure kinds every persistence adapter reports.
// Adapters translate driver-specific errors into these values at a single
// boundary so services never see pgconn or sqlite error types.
package store

import "errors"

var (
	ErrNotFound            = errors.New("store: record not found")
	ErrUniqueViolation     = errors.New("store: unique constraint violation")
	ErrForeignKeyViolation = errors.New("store: foreign key constraint violation")
	ErrInvalidData         = errors.New("store: invalid data")
)
