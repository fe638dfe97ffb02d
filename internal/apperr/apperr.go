package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	Validation
	NotFound
	StateConflict
	InsufficientFunds
	RateLimited
	Upstream
)

// Error carries a stable machine code alongside the message so handlers can
// render a JSON body without switching on message text.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
	// Details is attached to the JSON error body (e.g. attempts remaining).
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, code, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg, Err: err}
}

func (e *Error) With(key string, val any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = val
	return e
}

// KindOf extracts the kind from err, defaulting to Unknown.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unknown
}

func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
