package core

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the stores, the importer and the
// services wraps exactly one of them, so callers can branch with errors.Is.
var (
	// ErrMalformedRecord marks a single unparseable line or row. It is
	// reported and skipped, never fatal to a batch.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrIO marks a failure of the persistence medium.
	ErrIO = errors.New("i/o failure")
	// ErrValidation marks a user-supplied value that breaks a business rule.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an absent import or backup file.
	ErrNotFound = errors.New("not found")
)

var (
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	ErrInvalidKind     = fmt.Errorf("%w: kind must be income or expense", ErrValidation)
	ErrInvalidPeriod   = fmt.Errorf("%w: period must be YYYY-MM", ErrValidation)
	ErrInvalidDate     = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	ErrEmptyCategory   = fmt.Errorf("%w: empty category", ErrValidation)
	ErrUnencodableText = fmt.Errorf("%w: text must not contain commas or line breaks", ErrValidation)
)

// OpError ties a failed operation to its error category and underlying cause.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IOFailure wraps err as an ErrIO for operation op.
func IOFailure(op string, err error) error {
	return &OpError{Op: op, Kind: ErrIO, Err: err}
}

// NotFound wraps err as an ErrNotFound for operation op.
func NotFound(op string, err error) error {
	return &OpError{Op: op, Kind: ErrNotFound, Err: err}
}

// Malformed wraps err as an ErrMalformedRecord for operation op.
func Malformed(op string, err error) error {
	return &OpError{Op: op, Kind: ErrMalformedRecord, Err: err}
}
