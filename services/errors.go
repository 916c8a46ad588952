package services

import "errors"

// Kind classifies a workflow failure so the delivery layer can pick an HTTP
// status without string matching.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindGateway
	KindNotFound
	KindConflict
	KindUnexpected
)

// Error is the failure type every workflow operation returns. Message is
// safe to surface to the caller; Err keeps the cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain, defaulting to unexpected.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindUnexpected
}

// MessageOf returns the caller-safe message for an error.
func MessageOf(err error) string {
	var we *Error
	if errors.As(err, &we) {
		return we.Message
	}
	return "Internal server error"
}
