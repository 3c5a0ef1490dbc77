// Package xerrors defines the error kinds used across the graph building and
// lowering APIs, along with constructors and predicates for them.
//
// Every error returned by this repository is classified as exactly one of:
//
//   - InvalidArgument: the caller handed in something malformed (bad operand
//     shapes, out-of-range attributes, corrupt payloads).
//   - FailedPrecondition: the call arrived in the wrong order or state
//     (an operand lowered before its producer, a finalized context reused).
//   - Internal: an invariant of the library itself was broken, for instance
//     the target builder rejecting an operation that passed shape inference.
//
// Errors are created with stack traces attached (github.com/pkg/errors) and
// carry their kind as a wrapped sentinel, so classification survives any
// further wrapping: use the Is* predicates, or errors.Is with the Err*
// sentinels directly.
package xerrors

import (
	goerrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors marking the kind of a failure. They are never returned
// bare, always wrapped with a message and a stack trace.
var (
	ErrInvalidArgument    = goerrors.New("invalid argument")
	ErrInternal           = goerrors.New("internal error")
	ErrFailedPrecondition = goerrors.New("failed precondition")
)

// InvalidArgumentf returns a new InvalidArgument error with a formatted
// message and an attached stack trace.
func InvalidArgumentf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// Internalf returns a new Internal error with a formatted message and an
// attached stack trace.
func Internalf(format string, args ...any) error {
	return errors.Wrapf(ErrInternal, format, args...)
}

// FailedPreconditionf returns a new FailedPrecondition error with a formatted
// message and an attached stack trace.
func FailedPreconditionf(format string, args ...any) error {
	return errors.Wrapf(ErrFailedPrecondition, format, args...)
}

func wrapAs(kind, cause error, format string, args ...any) error {
	return errors.WithStack(fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), kind, cause))
}

// WrapInvalidArgument classifies cause as an InvalidArgument error, keeping
// it in the chain: errors.Is still finds the cause, and the Is* predicates
// find the kind.
func WrapInvalidArgument(cause error, format string, args ...any) error {
	return wrapAs(ErrInvalidArgument, cause, format, args...)
}

// WrapInternal classifies cause as an Internal error, keeping it in the
// chain.
func WrapInternal(cause error, format string, args ...any) error {
	return wrapAs(ErrInternal, cause, format, args...)
}

// WrapFailedPrecondition classifies cause as a FailedPrecondition error,
// keeping it in the chain.
func WrapFailedPrecondition(cause error, format string, args ...any) error {
	return wrapAs(ErrFailedPrecondition, cause, format, args...)
}

// IsInvalidArgument reports whether any error in err's chain is an
// InvalidArgument error.
func IsInvalidArgument(err error) bool {
	return goerrors.Is(err, ErrInvalidArgument)
}

// IsInternal reports whether any error in err's chain is an Internal error.
func IsInternal(err error) bool {
	return goerrors.Is(err, ErrInternal)
}

// IsFailedPrecondition reports whether any error in err's chain is a
// FailedPrecondition error.
func IsFailedPrecondition(err error) bool {
	return goerrors.Is(err, ErrFailedPrecondition)
}
