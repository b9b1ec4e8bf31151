// Package errs defines the error kinds shared by the codec, the splitter and
// the ground-truth engine.
//
// Every failure is one of three kinds:
//
//   - Format: a file is shorter than its header declares, or header values are
//     out of range.
//   - Validation: a precondition on the inputs does not hold (label count,
//     K, split fraction, dimensions).
//   - IO: a file cannot be opened, created or written.
//
// All kinds abort the current operation. Callers test the kind with
// errors.Is against ErrFormat, ErrValidation or ErrIO.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind uint8

const (
	KindFormat Kind = iota + 1
	KindValidation
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindValidation:
		return "validation"
	case KindIO:
		return "io"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

var (
	// ErrFormat matches every format error.
	ErrFormat = errors.New("format error")
	// ErrValidation matches every validation error.
	ErrValidation = errors.New("validation error")
	// ErrIO matches every I/O error.
	ErrIO = errors.New("io error")
)

// Error carries the kind, the failing operation and, when known, the path.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := "[" + e.Kind.String() + "] " + e.Op
	if e.Path != "" {
		s += " " + e.Path
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrFormat:
		return e.Kind == KindFormat
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrIO:
		return e.Kind == KindIO
	}
	return false
}

// WithPath returns e with Path set.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// Format returns a format error.
func Format(op, format string, args ...any) *Error {
	return &Error{Kind: KindFormat, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validation returns a validation error.
func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IO wraps a non-nil err as an I/O error on path.
func IO(op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of the first Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
