// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies engine failures so front-ends can map them to exit codes
// or HTTP statuses without inspecting message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidInput
	KindConversion
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidInput:
		return "invalid input"
	case KindConversion:
		return "conversion failure"
	case KindConfiguration:
		return "configuration error"
	}
	return "unknown error"
}

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConversion    = errors.New("conversion failure")
	ErrConfiguration = errors.New("configuration error")
)

// Error is the typed error returned by every Engine operation.
type Error struct {
	Kind Kind
	Op   string // e.g. "pdf2png"
	Path string // offending file, if any
	Err  error

	trace *goerrors.Error
}

func newError(kind Kind, op, path string, err error) *Error {
	if err == nil {
		err = errors.New(kind.String())
	}
	return &Error{
		Kind:  kind,
		Op:    op,
		Path:  path,
		Err:   err,
		trace: goerrors.Wrap(err, 1),
	}
}

func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrConversion:
		return e.Kind == KindConversion
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	}
	return false
}

// Stack returns the message and call stack captured when the error was
// created.
func (e *Error) Stack() string {
	if e.trace == nil {
		return e.Error()
	}
	return e.trace.ErrorStack()
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StackOf returns the captured stack for err, falling back to its message.
func StackOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stack()
	}
	return err.Error()
}
