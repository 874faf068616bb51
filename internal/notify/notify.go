// Package notify classifies engine errors and holds the user-facing banner.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/chatr/internal/gateway"
)

// Kind is the error taxonomy shared by the engine and its hosts.
type Kind int

const (
	// Transient is a recoverable fetch failure shown on the banner.
	Transient Kind = iota
	// SendFailure is a rolled-back submission.
	SendFailure
	// Background failures are logged only.
	Background
	// Validation errors are returned to the caller.
	Validation
	// Fatal ends the session.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case SendFailure:
		return "send_failure"
	case Background:
		return "background"
	case Validation:
		return "validation"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error attaches a Kind and the failing operation to an error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err as kind. An unauthorized error is always Fatal.
// Wrap(nil) returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gateway.ErrUnauthorized) {
		kind = Fatal
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validationf builds a Validation error.
func Validationf(op, format string, args ...any) error {
	return &Error{Kind: Validation, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err. Unclassified errors are Transient, except
// unauthorized responses which are Fatal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, gateway.ErrUnauthorized) {
		return Fatal
	}
	return Transient
}

// IsCanceled reports whether err came from a superseded or abandoned
// operation and should not be surfaced.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
