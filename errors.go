package objectd

import (
	"errors"
	"fmt"
	"syscall"
)

// Error is a structured error carrying the operation, the disk path (if
// any), a high-level error class, and the underlying errno when one is
// available.
type Error struct {
	Op     string    // operation that failed (e.g. "path_for_oid", "handle_eio")
	Path   string     // disk or object path, empty if not applicable
	Code   ErrorCode  // high-level error class
	Errno  syscall.Errno
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("objectd: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("objectd: %s", msg)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports both structured-Error comparison and comparison against the
// legacy sentinel constants below.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if le, ok := target.(LegacyError); ok {
		return e.Code == ErrorCode(le)
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode is one of the four classes defined by the placement and
// work-queue surface.
type ErrorCode string

const (
	// Success names the no-error class. Go call sites express it as a nil
	// error; admin operations (Plug/Unplug) report "no-op, nothing changed"
	// as changed=false with a nil error rather than returning this code.
	Success ErrorCode = "success"
	// NoObj means the object was not found even after a full scan.
	NoObj ErrorCode = "no object"
	// EIO means a local disk refused I/O, or MDP is disabled.
	EIO ErrorCode = "I/O error"
	// NetworkError invites the caller to retry while recovery proceeds
	// asynchronously on the work queue.
	NetworkError ErrorCode = "retry: recovery in progress"
)

// LegacyError is a plain string-sentinel error type kept for call sites
// that compare against package-level constants rather than unwrapping a
// structured *Error.
type LegacyError string

func (e LegacyError) Error() string { return string(e) }

// Sentinel errors comparable via errors.Is against any *Error of the
// matching class.
const (
	ErrNoObj         LegacyError = LegacyError(NoObj)
	ErrEIO           LegacyError = LegacyError(EIO)
	ErrNetworkError  LegacyError = LegacyError(NetworkError)
)

// NewError builds a structured error with no path or errno context.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewErrorWithErrno builds a structured error from a syscall errno,
// classifying it via mapErrnoToCode.
func NewErrorWithErrno(op, path string, errno syscall.Errno) *Error {
	return &Error{
		Op:    op,
		Path:  path,
		Code:  mapErrnoToCode(errno),
		Errno: errno,
		Msg:   errno.Error(),
	}
}

// NewPathError builds a structured error scoped to a specific disk path.
func NewPathError(op, path string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Path: path, Code: code, Msg: msg}
}

// WrapError wraps an existing error with objectd operation context,
// preserving structured errors' classification and mapping raw syscall
// errnos to the nearest class.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	if oe, ok := inner.(*Error); ok {
		return &Error{
			Op:    op,
			Path:  oe.Path,
			Code:  oe.Code,
			Errno: oe.Errno,
			Msg:   oe.Msg,
			Inner: oe.Inner,
		}
	}

	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{
			Op:    op,
			Code:  mapErrnoToCode(errno),
			Errno: errno,
			Msg:   errno.Error(),
			Inner: inner,
		}
	}

	return &Error{Op: op, Code: EIO, Msg: inner.Error(), Inner: inner}
}

// mapErrnoToCode classifies a syscall errno into one of the four error
// classes. ENOENT maps to NO_OBJ; every other errno falls to EIO, the
// "local disk error" default (no errno maps to NETWORK_ERROR, which has no
// syscall-level equivalent).
func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.ENOENT:
		return NoObj
	default:
		return EIO
	}
}

// IsCode reports whether err unwraps to a structured *Error of the given
// class.
func IsCode(err error, code ErrorCode) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

// IsErrno reports whether err unwraps to a structured *Error carrying the
// given errno.
func IsErrno(err error, errno syscall.Errno) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Errno == errno
	}
	return false
}
