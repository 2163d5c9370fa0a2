package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic handling with errors.Is.
var (
	ErrConfiguration   = errors.New("invalid collection configuration")
	ErrRange           = errors.New("value out of range")
	ErrInvalidDocument = errors.New("invalid document")
	ErrNotFound        = errors.New("document not found")
	ErrUniqueViolation = errors.New("unique index violation")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrUnknownBackend  = errors.New("unknown store backend")
	ErrCorruptFile     = errors.New("corrupt collection file")
	ErrLocationLocked  = errors.New("store location is locked")
)

// StoreError wraps a failure surfaced by a Store. The underlying error is
// kept as-is and reachable through errors.Is / errors.As.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on collection %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
