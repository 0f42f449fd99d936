// Package process provides interfaces and types for process manipulation
package process

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrNotFound is returned when no process matches a lookup.
	ErrNotFound = errors.New("process not found")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// after the process has been closed.
	ErrProcessNotOpen = errors.New("process not open")
)

// MessageFormatter resolves a system error code to text.
type MessageFormatter interface {
	FormatMessage(code uint32) string
}

// OSError reports a failed OS call together with the system error code it
// returned.
type OSError struct {
	Op      string // Name of the failing call, e.g. OpenProcess
	Code    uint32
	Message string // Best-effort system text for Code, may be empty
	Err     error
}

func (e *OSError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed: %s (code %d)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("%s failed: error code %d", e.Op, e.Code)
}

func (e *OSError) Unwrap() error {
	return e.Err
}

// NewOSError builds an OSError from the error returned by the failing call
// itself. err may be nil when the call signalled failure only through its
// result; Code is then 0.
func NewOSError(op string, err error, f MessageFormatter) *OSError {
	e := &OSError{Op: op, Err: err}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		e.Code = uint32(errno)
	}
	if f != nil && e.Code != 0 {
		e.Message = f.FormatMessage(e.Code)
	}
	return e
}

// ErrorCode returns the system error code carried by err, or 0 when err is
// not an OSError.
func ErrorCode(err error) uint32 {
	var oe *OSError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return 0
}
