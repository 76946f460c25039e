// Package apperr defines the error taxonomy shared by the stores, the
// services and the user-facing boundaries.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the boundary that turns it into a message.
type Kind int

const (
	Unknown Kind = iota
	Validation
	NotFound
	Storage
	Auth
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Storage:
		return "storage"
	case Auth:
		return "auth"
	default:
		return "unknown"
	}
}

// Error carries a kind, a message fit for display and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind. Values returned by New are safe to
// use as sentinels with errors.Is.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches a kind and a display message to err.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Message returns the text to show a user for err. Causes are not included,
// they belong in the logs.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "Something went wrong"
}
