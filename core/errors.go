package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// TxConflictError is returned when the database rejected a write because of a concurrent
// transaction (serialization failure) or a constraint acting as a backstop.
type TxConflictError struct {
	Unique     bool // unique index violation, as opposed to serialization/exclusion failures
	Constraint string
	Err        error
}

func (err *TxConflictError) Error() string {
	if err.Err == nil {
		return "concurrent write conflict"
	}
	return "concurrent write conflict: " + err.Err.Error()
}

func (err *TxConflictError) Unwrap() error { return err.Err }

// IsTxConflict reports whether err (or any error it wraps) is a *TxConflictError.
func IsTxConflict(err error) (*TxConflictError, bool) {
	var txErr *TxConflictError
	if errors.As(err, &txErr) {
		return txErr, true
	}
	return nil, false
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
