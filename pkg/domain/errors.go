package domain

import (
	"errors"
	"fmt"
	"strconv"

	"meetcore/pkg/discipline"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	ErrMalformedEntity     = errors.New("malformed entity")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrNotFound            = errors.New("entity not found")
	ErrReferenced          = errors.New("entity still referenced")
	ErrIOFailure           = errors.New("io failure")
	// ErrUnknownDiscipline is re-exported so callers need only this package.
	ErrUnknownDiscipline = discipline.ErrUnknownDiscipline
)

// UnknownDisciplineError is returned when a race names a code missing from the catalogue.
type UnknownDisciplineError = discipline.UnknownDisciplineError

// MalformedEntityError reports a required field that is missing or fails to parse.
type MalformedEntityError struct {
	Kind  EntityKind
	ID    string
	Field string
	Err   error
}

func (e MalformedEntityError) Error() string {
	msg := fmt.Sprintf("malformed %s", e.Kind)
	if e.ID != "" {
		msg += " " + e.ID
	}
	msg += ": field " + e.Field
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying parse error.
func (e MalformedEntityError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedEntity.
func (e MalformedEntityError) Is(target error) bool { return target == ErrMalformedEntity }

// UnresolvedReferenceError reports a reference to an id that is not in the graph.
type UnresolvedReferenceError struct {
	Kind EntityKind
	ID   string
}

func (e UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference to %s %s", e.Kind, e.ID)
}

// Is reports whether target is ErrUnresolvedReference.
func (e UnresolvedReferenceError) Is(target error) bool { return target == ErrUnresolvedReference }

// NotFoundError is returned when a mutation targets an id absent from the graph.
type NotFoundError struct {
	Kind EntityKind
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ReferencedError is returned when removing an entity other entities still point at.
type ReferencedError struct {
	Kind EntityKind
	ID   string
	By   EntityKind
}

func (e ReferencedError) Error() string {
	return fmt.Sprintf("%s %s is still referenced by a %s", e.Kind, e.ID, e.By)
}

// Is reports whether target is ErrReferenced.
func (e ReferencedError) Is(target error) bool { return target == ErrReferenced }

// IOFailureError wraps a storage failure during load or save.
type IOFailureError struct {
	Op  string
	Key string
	Err error
}

func (e IOFailureError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap exposes the storage error.
func (e IOFailureError) Unwrap() error { return e.Err }

// Is reports whether target is ErrIOFailure.
func (e IOFailureError) Is(target error) bool { return target == ErrIOFailure }

var (
	errRequired   = errors.New("required")
	errNegative   = errors.New("must not be negative")
	errImmutable  = errors.New("cannot be changed through an update")
	errWhitespace = errors.New("must not contain whitespace")
)

func intID(id int) string { return strconv.Itoa(id) }

func malformed(kind EntityKind, id, field string, err error) MalformedEntityError {
	return MalformedEntityError{Kind: kind, ID: id, Field: field, Err: err}
}

func unresolved(kind EntityKind, id string) UnresolvedReferenceError {
	return UnresolvedReferenceError{Kind: kind, ID: id}
}

func notFound(kind EntityKind, id string) NotFoundError {
	return NotFoundError{Kind: kind, ID: id}
}
