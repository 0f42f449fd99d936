package winapi

import (
	"errors"
	"syscall"
)

// Win32 error codes procwalk cares about. They are declared as syscall.Errno
// so that errors returned by golang.org/x/sys/windows compare equal to them.
const (
	ERROR_INVALID_FUNCTION     = syscall.Errno(1)
	ERROR_ACCESS_DENIED        = syscall.Errno(5)
	ERROR_INVALID_HANDLE       = syscall.Errno(6)
	ERROR_NO_MORE_FILES        = syscall.Errno(18)
	ERROR_BAD_LENGTH           = syscall.Errno(24)
	ERROR_INVALID_PARAMETER    = syscall.Errno(87)
	ERROR_CALL_NOT_IMPLEMENTED = syscall.Errno(120)
	ERROR_INSUFFICIENT_BUFFER  = syscall.Errno(122)
	ERROR_MOD_NOT_FOUND        = syscall.Errno(126)
	ERROR_PARTIAL_COPY         = syscall.Errno(299)
)

// ErrorCode extracts the system error code carried by err, or 0.
func ErrorCode(err error) uint32 {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return uint32(errno)
	}
	return 0
}

// IsNoMoreFiles reports whether err marks the end of a snapshot.
func IsNoMoreFiles(err error) bool {
	return ErrorCode(err) == uint32(ERROR_NO_MORE_FILES)
}
