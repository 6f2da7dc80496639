package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the typed discriminant cross-component control flow
// dispatches on. No component parses another component's error strings.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindNotFound        ErrorKind = "not_found"
	KindTimeout         ErrorKind = "timeout"
	KindAPI             ErrorKind = "api"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindAmbiguous       ErrorKind = "ambiguous"
	KindGuardrail       ErrorKind = "guardrail_blocked"
	KindConflict        ErrorKind = "conflict"
	KindInternal        ErrorKind = "internal"
)

// Error is a structured error with a kind and optional details.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf unwraps err and returns its kind, or KindInternal for plain errors.
func KindOf(err error) ErrorKind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Kind == kind
}

// Transient reports whether retrying could plausibly help: timeouts and
// transport-level API failures. Invalid responses are not transient;
// retrying won't fix a schema mismatch.
func Transient(err error) bool {
	k := KindOf(err)
	return k == KindTimeout || k == KindAPI
}

func NewNotFound(path string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("entry not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

func NewValidation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewTimeout(operation string) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("%s timed out", operation),
	}
}

func NewAPIError(operation string, cause error) *Error {
	msg := operation + " failed"
	if cause != nil {
		msg = fmt.Sprintf("%s failed: %v", operation, cause)
	}
	return &Error{Kind: KindAPI, Message: msg}
}

// NewInvalidResponse keeps the raw model output in details for diagnostics.
func NewInvalidResponse(msg, raw string) *Error {
	return &Error{
		Kind:    KindInvalidResponse,
		Message: msg,
		Details: map[string]any{"raw": raw},
	}
}

// NewAmbiguous lists candidate display names so the caller can ask the
// user instead of guessing.
func NewAmbiguous(options []string) *Error {
	return &Error{
		Kind: KindAmbiguous,
		Message: fmt.Sprintf(
			"multiple entries match; please clarify which one you mean: %s",
			strings.Join(options, "; ")),
		Details: map[string]any{"options": options},
	}
}

func NewGuardrailBlocked(reason string) *Error {
	return &Error{
		Kind:    KindGuardrail,
		Message: reason,
	}
}

func NewConflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}
