package core

import "github.com/pkg/errors"

// FieldError pins a validation failure to a single input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a business-rule rejection of otherwise well-formed
// input; handlers translate it to a 400 with the field map when present.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals an unrecoverable state; the server stops serving when it
// catches one.
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
