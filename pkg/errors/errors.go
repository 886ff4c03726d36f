package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Manifest errors, all fatal and raised before any download
	ErrManifestUnavailable   ErrorCode = "MANIFEST_UNAVAILABLE"
	ErrEmptyManifest         ErrorCode = "EMPTY_MANIFEST"
	ErrNoLiveRevision        ErrorCode = "NO_LIVE_REVISION"
	ErrDuplicateLiveRevision ErrorCode = "DUPLICATE_LIVE_REVISION"

	// Per-revision errors
	ErrArchiveUnavailable      ErrorCode = "ARCHIVE_UNAVAILABLE"
	ErrExtraction              ErrorCode = "EXTRACTION"
	ErrLiveRevisionUnavailable ErrorCode = "LIVE_REVISION_UNAVAILABLE"

	// Promotion and collection
	ErrLink ErrorCode = "LINK"
	ErrGC   ErrorCode = "GC"

	// Content source transport failure
	ErrSource ErrorCode = "SOURCE"

	// Cycle interrupted by its context
	ErrCancelled ErrorCode = "CANCELLED"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
)

// Error represents a structured error with code and details
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *Error) Is(target error) bool {
	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new Error with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with an Error
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var revErr *Error
	if errors.As(err, &revErr) {
		return revErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an Error
func GetErrorCode(err error) ErrorCode {
	var revErr *Error
	if errors.As(err, &revErr) {
		return revErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not an Error
func GetErrorDetails(err error) map[string]interface{} {
	var revErr *Error
	if errors.As(err, &revErr) {
		return revErr.Details
	}
	return nil
}

// IsFatal reports whether an error code aborts an update cycle.
// Archive and collection failures are logged and skipped.
func IsFatal(code ErrorCode) bool {
	switch code {
	case ErrArchiveUnavailable, ErrGC:
		return false
	default:
		return true
	}
}

// Process exit statuses by failure class.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitConfig   = 2
	ExitManifest = 3
	ExitSource   = 4
)

// ExitCode maps err to a process exit status, letting scripts tell a bad
// configuration from a rejected manifest or an unreachable source.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch GetErrorCode(err) {
	case ErrConfigLoad, ErrConfigValid, ErrInvalidInput:
		return ExitConfig
	case ErrEmptyManifest, ErrNoLiveRevision, ErrDuplicateLiveRevision, ErrLiveRevisionUnavailable:
		return ExitManifest
	case ErrManifestUnavailable, ErrSource:
		return ExitSource
	default:
		return ExitFailure
	}
}
