// Package procerr defines the classified errors shared by the process
// query and termination engines. Tool handlers translate these into the
// structured error_kind field returned to callers; the kind strings are
// part of the wire contract and must not change spelling.
package procerr

import (
	"errors"
	"fmt"
)

// Kind identifies a failure class.
type Kind string

const (
	KindNotFound   Kind = "NotFoundError"
	KindProtected  Kind = "ProtectedProcessError"
	KindSelf       Kind = "SelfTerminationError"
	KindPermission Kind = "PermissionError"
	KindTimeout    Kind = "TerminationTimeoutError"
	KindCollection Kind = "CollectionError"
	KindInvalidArg Kind = "InvalidArgumentError"
)

// Error is a failure carrying its classification and an optional cause.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error, keeping it unwrappable.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the classification of err, or "" if err carries none.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
