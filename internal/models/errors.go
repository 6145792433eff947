package models

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that an id (or lookup key) did not resolve to a record.
var ErrNotFound = errors.New("record not found")

// ConflictError signals a uniqueness violation. Existing carries the record
// that already holds the key so callers can decide to reuse it.
type ConflictError struct {
	Resource string // "user", "movie", "ranking"
	Message  string
	Existing any
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ReferenceError signals a delete blocked by rankings that still reference
// the record. Mapped to a 400, not a 409: the request shape is fine, the
// operation itself is not allowed in this state.
type ReferenceError struct {
	Message string
}

func (e *ReferenceError) Error() string {
	return e.Message
}

func NewReferenceError(resource string, rankings int) *ReferenceError {
	return &ReferenceError{
		Message: fmt.Sprintf("cannot delete %s: %d ranking(s) still reference it; deactivate or archive instead", resource, rankings),
	}
}
