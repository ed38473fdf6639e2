// Package lferrors defines the closed taxonomy of error codes the core can
// surface. Every code is a small negative integer, stable across versions,
// matching the on-disk error enum of the littlefs wire format.
package lferrors

import "fmt"

// Code is one of the small negative integers documented below. Non-negative
// values are never errors: they denote byte counts or plain success.
type Code int

const (
	NoSuchEntry       = Code(-2)
	IOFailed          = Code(-5)
	BadFileDescriptor = Code(-9)
	NoMemory          = Code(-12)
	EntryExists       = Code(-17)
	PathNotDir        = Code(-20)
	PathIsDir         = Code(-21)
	Invalid           = Code(-22)
	FileTooBig        = Code(-27)
	NoSpace           = Code(-28)
	NameTooLong       = Code(-36)
	DirNotEmpty       = Code(-39)
	NoAttribute       = Code(-61)
	Corruption        = Code(-84)
)

var names = map[Code]string{
	NoSuchEntry:       "no such file or directory",
	IOFailed:          "input/output error",
	BadFileDescriptor: "bad file descriptor",
	NoMemory:          "cannot allocate memory",
	EntryExists:       "file exists",
	PathNotDir:        "not a directory",
	PathIsDir:         "is a directory",
	Invalid:           "invalid argument",
	FileTooBig:        "file too large",
	NoSpace:           "no space left on device",
	NameTooLong:       "file name too long",
	DirNotEmpty:       "directory not empty",
	NoAttribute:       "no data available",
	Corruption:        "structure needs cleaning",
}

func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown error code %d", int(c))
}

// Error makes a bare Code usable as an error value, e.g. as the target of
// errors.Is.
func (c Code) Error() string { return c.String() }

// Error wraps a [Code] with an optional, more specific message and an
// optional parent error. It implements the standard `error` interface.
type Error struct {
	Code    Code
	message string
	parent  error
}

// New creates an [Error] from a code, with the default message for that code.
func New(code Code) *Error {
	return &Error{Code: code, message: code.String()}
}

// WithMessage creates an [Error] from a code with a custom message appended to
// the code's default description.
func WithMessage(code Code, message string) *Error {
	return &Error{Code: code, message: fmt.Sprintf("%s: %s", code.String(), message)}
}

// Wrap creates an [Error] from a code, appending the text of another error and
// preserving it so `errors.Is` finds it in the chain.
func (c Code) Wrap(err error) *Error {
	if err == nil {
		return New(c)
	}
	return &Error{
		Code:    c,
		message: fmt.Sprintf("%s: %s", c.String(), err.Error()),
		parent:  err,
	}
}

func (e *Error) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.Code.String()
}

// Is lets callers use errors.Is(err, lferrors.NoSuchEntry) style comparisons
// against a bare Code, in addition to the normal *Error-to-*Error comparison.
func (e *Error) Is(target error) bool {
	if code, ok := target.(Code); ok {
		return e.Code == code
	}
	other, ok := target.(*Error)
	return ok && other.Code == e.Code
}

// Unwrap exposes the wrapped parent error, if any, so `errors.Is`/`errors.As`
// can walk past this error to whatever it wraps.
func (e *Error) Unwrap() error {
	return e.parent
}

// WithMessage returns a new Error with `message` appended to this one's.
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		Code:    e.Code,
		message: fmt.Sprintf("%s: %s", e.Error(), message),
		parent:  e.parent,
	}
}
