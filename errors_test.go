package objectd

import (
	"errors"
	"syscall"
	"testing"
)

func TestStructuredError(t *testing.T) {
	err := NewError("plug", EIO, "disk refused write")

	if err.Op != "plug" {
		t.Errorf("Expected Op=plug, got %s", err.Op)
	}
	if err.Code != EIO {
		t.Errorf("Expected Code=EIO, got %s", err.Code)
	}

	expected := "objectd: disk refused write (op=plug)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestPathError(t *testing.T) {
	err := NewPathError("path_for_oid", "/mnt/disk0", NoObj, "object missing after scan")

	if err.Path != "/mnt/disk0" {
		t.Errorf("Expected Path=/mnt/disk0, got %s", err.Path)
	}

	expected := "objectd: object missing after scan (op=path_for_oid)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestErrorWithErrno(t *testing.T) {
	err := NewErrorWithErrno("handle_eio", "/mnt/disk0", syscall.ENOENT)

	if err.Errno != syscall.ENOENT {
		t.Errorf("Expected Errno=ENOENT, got %v", err.Errno)
	}
	if err.Code != NoObj {
		t.Errorf("Expected Code=NoObj, got %s", err.Code)
	}
}

func TestWrapError(t *testing.T) {
	inner := syscall.ENOENT
	err := WrapError("exists", inner)

	if err.Code != NoObj {
		t.Errorf("Expected Code=NoObj, got %s", err.Code)
	}
	if err.Errno != syscall.ENOENT {
		t.Errorf("Expected Errno=ENOENT, got %v", err.Errno)
	}
	if !errors.Is(err, syscall.ENOENT) {
		t.Error("Expected wrapped error to satisfy errors.Is for ENOENT")
	}
}

func TestWrapErrorPreservesStructured(t *testing.T) {
	inner := NewPathError("do_recover", "/mnt/disk0", EIO, "disk gone")
	err := WrapError("handle_eio", inner)

	if err.Code != EIO || err.Path != "/mnt/disk0" {
		t.Errorf("WrapError did not preserve structured fields: %+v", err)
	}
}

func TestLegacySentinelCompatibility(t *testing.T) {
	var legacyErr error = ErrNoObj

	structuredErr := &Error{Code: NoObj}
	if !errors.Is(structuredErr, ErrNoObj) {
		t.Error("Structured error should be compatible with the legacy sentinel")
	}

	if legacyErr.Error() != string(NoObj) {
		t.Errorf("Expected legacy error message %q, got %q", string(NoObj), legacyErr.Error())
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("test", NetworkError, "recovery in progress")

	if !IsCode(err, NetworkError) {
		t.Error("IsCode should return true for matching code")
	}
	if IsCode(err, EIO) {
		t.Error("IsCode should return false for non-matching code")
	}
	if IsCode(nil, NetworkError) {
		t.Error("IsCode should return false for nil error")
	}
}

func TestIsErrno(t *testing.T) {
	err := NewErrorWithErrno("test", "", syscall.EIO)

	if !IsErrno(err, syscall.EIO) {
		t.Error("IsErrno should return true for matching errno")
	}
	if IsErrno(err, syscall.EPERM) {
		t.Error("IsErrno should return false for non-matching errno")
	}
	if IsErrno(nil, syscall.EIO) {
		t.Error("IsErrno should return false for nil error")
	}
}

func TestErrnoMapping(t *testing.T) {
	testCases := []struct {
		errno    syscall.Errno
		expected ErrorCode
	}{
		{syscall.ENOENT, NoObj},
		{syscall.EBUSY, EIO},
		{syscall.EIO, EIO},
	}

	for _, tc := range testCases {
		code := mapErrnoToCode(tc.errno)
		if code != tc.expected {
			t.Errorf("mapErrnoToCode(%v) = %s, want %s", tc.errno, code, tc.expected)
		}
	}
}
