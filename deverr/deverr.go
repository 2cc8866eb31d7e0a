// Package deverr defines the stable error-kind set shared by every layer
// of the transfer subsystem (spec.md §7). It has no dependency on any
// other package in this module so fxpoint, transfer, accessor, backend
// and decorator can all return these errors without import cycles.
package deverr

import (
	"errors"
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
)

// Kind is one of the stable error kinds from spec.md §7.
type Kind uint8

const (
	// NotOpened: operation on a backend that is not open.
	NotOpened Kind = iota
	// NotImplemented: capability missing on this backend.
	NotImplemented
	// WrongParameter: size/alignment/value invalid.
	WrongParameter
	// WrongAccessor: accessor dimension or type doesn't match register.
	WrongAccessor
	// RegisterDoesNotExist: path not in catalogue.
	RegisterDoesNotExist
	// IOError: wire failure, including handshaking timeout.
	IOError
	// CannotOpenMapFile: parser could not read/parse a map file.
	CannotOpenMapFile
)

func (k Kind) String() string {
	switch k {
	case NotOpened:
		return "NOT_OPENED"
	case NotImplemented:
		return "NOT_IMPLEMENTED"
	case WrongParameter:
		return "WRONG_PARAMETER"
	case WrongAccessor:
		return "WRONG_ACCESSOR"
	case RegisterDoesNotExist:
		return "REGISTER_DOES_NOT_EXIST"
	case IOError:
		return "I_O_ERROR"
	case CannotOpenMapFile:
		return "CANNOT_OPEN_MAP_FILE"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Error is a Kind-tagged error carrying a human-readable message. Two
// Errors compare equal under errors.Is iff their Kind matches; the
// message is not part of the identity so callers can match on kind
// regardless of which register/path produced it.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is implements the errors.Is contract by Kind equality, ignoring message
// and cause — this is what lets call sites write
// `errors.Is(err, deverr.New(deverr.IOError, ""))` or more idiomatically
// `deverr.Is(err, deverr.IOError)`.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, v ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, v...)}
}

// Wrap creates an Error of the given kind that chains to cause via
// errors.Unwrap/errors.As.
func Wrap(kind Kind, cause error, format string, v ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, v...), cause: cause}
}

// Is reports whether err is, or wraps, a deverr.Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Append aggregates multiple causes of the same failed operation (e.g.
// SharedDummyBackend.Close's independent cleanup steps, or
// LogicalNameBackend.Close flushing several persisted variables) into one error via hashicorp/go-multierror, per
// SPEC_FULL.md §7: single-cause failures stay plain wrapped errors, never
// multierror-wrapped, so errors.Is keeps working on the common case.
func Append(causes ...error) error {
	var merr *multierror.Error
	for _, c := range causes {
		if c != nil {
			merr = multierror.Append(merr, c)
		}
	}
	if merr == nil {
		return nil
	}
	if len(merr.Errors) == 1 {
		return merr.Errors[0]
	}
	return merr
}
