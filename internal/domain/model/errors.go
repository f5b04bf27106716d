package model

import (
	"errors"
	"fmt"
)

// ErrNotReady signals that a required draft field has not resolved yet. It is
// a soft condition: callers suppress the dependent operation instead of
// surfacing an error to the user.
var ErrNotReady = errors.New("draft is not ready")

// NotReadyField wraps ErrNotReady with the name of the missing field.
func NotReadyField(field string) error {
	return fmt.Errorf("%w: missing %s", ErrNotReady, field)
}

// ValidationError reports malformed user input at submit time. It is surfaced
// inline and blocks submission before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IneligibleError is the terminal failure of a submit attempt: the paymaster
// service refused to sponsor the transaction. Signing must not happen after it.
type IneligibleError struct {
	Eta *int64
}

func (e *IneligibleError) Error() string {
	return "transaction is not eligible for sponsorship"
}

// NetworkError wraps a transport-level failure of a remote call. It is
// surfaced verbatim and never retried automatically.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// SigningError reports a failure of the signer capability. Fatal for the
// current submit attempt.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
