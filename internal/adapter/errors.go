package adapter

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an adapter failure for the orchestrator's policy:
// Transient failures are retried, Auth failures are surfaced without retry,
// Schema failures skip the offending row, Fatal failures abort the window.
type ErrorKind string

const (
	KindTransient ErrorKind = "transient"
	KindAuth      ErrorKind = "auth"
	KindSchema    ErrorKind = "schema"
	KindFatal     ErrorKind = "fatal"
)

// Error is a classified adapter failure. Source names the adapter that
// produced it so sync summaries can attribute errors per source.
type Error struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s adapter: %s error: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient wraps err as a retryable failure.
func Transient(source string, err error) *Error {
	return &Error{Kind: KindTransient, Source: source, Err: err}
}

// Auth wraps err as a credential failure. Never retried, never causes
// existing data to be deleted.
func Auth(source string, err error) *Error {
	return &Error{Kind: KindAuth, Source: source, Err: err}
}

// Schema wraps err as a malformed-payload failure for a single row.
func Schema(source string, err error) *Error {
	return &Error{Kind: KindSchema, Source: source, Err: err}
}

// Fatal wraps err as an unrecoverable failure for the whole window.
func Fatal(source string, err error) *Error {
	return &Error{Kind: KindFatal, Source: source, Err: err}
}

// KindOf extracts the classification from err, defaulting to Fatal for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindFatal
}
