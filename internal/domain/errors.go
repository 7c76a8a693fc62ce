// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates a request payload failed validation.
var ErrValidation = errors.New("validation failed")

// ErrInvalidTransition indicates a proposal transition was attempted from a
// state that does not permit it. Nothing happened: no state change, no audit
// entry.
var ErrInvalidTransition = errors.New("invalid state transition")
