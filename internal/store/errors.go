package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the store. Match them with errors.Is.
var (
	// ErrNotInitialized indicates a call on a store that is not open.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrUnresolvedPath indicates that no explicit path was given and no default location exists.
	ErrUnresolvedPath = errors.New("unresolved store path")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid focus session")

	// ErrSchemaTooNew indicates an on-disk schema written by a newer version of the program.
	ErrSchemaTooNew = errors.New("schema version newer than supported")

	// ErrCorrupt marks a storage file that fails the engine's structural check.
	// Initialize recovers from it.
	ErrCorrupt = errors.New("store file corrupted")
)

// Reason identifies which session invariant a ValidationError violated.
type Reason string

const (
	ReasonEmptyID              Reason = "EmptyId"
	ReasonInvalidTaskName      Reason = "InvalidTaskName"
	ReasonTaskNameTooLong      Reason = "TaskNameTooLong"
	ReasonNonIntegerDuration   Reason = "NonIntegerDuration"
	ReasonDurationOutOfRange   Reason = "DurationOutOfRange"
	ReasonInvalidStartTime     Reason = "InvalidStartTime"
	ReasonInvalidEndTime       Reason = "InvalidEndTime"
	ReasonEndBeforeStart       Reason = "EndBeforeStart"
	ReasonInvalidCompletedFlag Reason = "InvalidCompletedFlag"
)

// ValidationError describes the first invariant a session failed.
type ValidationError struct {
	Reason  Reason
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(reason Reason, field, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Field: field, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a read or write failure against an open store.
type StorageError struct {
	Op     string // save, get, query
	Entity string // focus_session, settings, metadata
	ID     string
	Err    error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
