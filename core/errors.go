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

// StoreError reports a failed write to the record store (quota, serialization, driver...).
// It is never retried.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func NewStoreError(op, collection string, err error) error {
	return &StoreError{Op: op, Collection: collection, Err: err}
}

func (err *StoreError) Error() string {
	return "store " + err.Op + " " + err.Collection + ": " + err.Err.Error()
}

func (err *StoreError) Unwrap() error { return err.Err }

// IsStoreError reports whether the root cause of err is a *StoreError.
func IsStoreError(err error) bool {
	_, ok := errors.Cause(err).(*StoreError)
	return ok
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
