package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every structured error below matches exactly one of these
// through errors.Is.
var (
	ErrNotInitialized  = errors.New("student model not initialized")
	ErrCorruptState    = errors.New("student model corrupt")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("concept not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidRelation = errors.New("invalid relation")
	ErrWriteFailure    = errors.New("write failed")
	ErrBatchFailure    = errors.New("batch failed")
)

// ValidationError names the field that violated its constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("concept %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type AlreadyExistsError struct {
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%q already exists", e.Name)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// RelationError reports a rejected link or unlink. Err carries the
// NotFoundError when an endpoint is missing.
type RelationError struct {
	From   string
	To     string
	Reason string
	Err    error
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("invalid relation %q <-> %q: %s", e.From, e.To, e.Reason)
}

func (e *RelationError) Is(target error) bool { return target == ErrInvalidRelation }
func (e *RelationError) Unwrap() error        { return e.Err }

// WriteError wraps a filesystem failure during save. Op names the save
// phase that failed.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Is(target error) bool { return target == ErrWriteFailure }
func (e *WriteError) Unwrap() error        { return e.Err }

// CorruptStateError is returned when neither the primary file nor its
// backup passes validation. Neither file is modified. The two causes are
// kept as fields and not unwrapped: errors.Is matches ErrCorruptState only.
type CorruptStateError struct {
	Path       string
	PrimaryErr error
	BackupErr  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("%s is corrupt (%v) and backup is unusable (%v)", e.Path, e.PrimaryErr, e.BackupErr)
}

func (e *CorruptStateError) Is(target error) bool { return target == ErrCorruptState }

// BatchError wraps the first failing request of a batch. Index is zero-based.
type BatchError struct {
	Index int
	Kind  string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch request %d (%s): %v", e.Index+1, e.Kind, e.Err)
}

func (e *BatchError) Is(target error) bool { return target == ErrBatchFailure }
func (e *BatchError) Unwrap() error        { return e.Err }
