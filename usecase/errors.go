package usecase

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures so the route layer can map them to stable
// status codes.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindAccessDenied Kind = "access_denied"
	KindConflict     Kind = "conflict"
	KindUnavailable  Kind = "unavailable"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func notFound(op, format string, args ...interface{}) *Error {
	return newError(KindNotFound, op, fmt.Sprintf(format, args...), nil)
}

func accessDenied(op, format string, args ...interface{}) *Error {
	return newError(KindAccessDenied, op, fmt.Sprintf(format, args...), nil)
}

func invalid(op, format string, args ...interface{}) *Error {
	return newError(KindValidation, op, fmt.Sprintf(format, args...), nil)
}

func unavailable(op string, err error) *Error {
	return newError(KindUnavailable, op, "", err)
}

// KindOf returns the kind of an engine error, or KindInternal for anything
// else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-facing part of an engine error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return ""
}
