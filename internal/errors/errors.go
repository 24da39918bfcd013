// Package errors defines the stable error code system for fileferry.
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable error code string.
type Code string

// Error codes. Codes are part of the CLI contract; log scrapers match on them.
const (
	EUsage    Code = "E_USAGE"
	EInternal Code = "E_INTERNAL"

	// Configuration
	EConfigNotFound Code = "E_CONFIG_NOT_FOUND"
	EConfigInvalid  Code = "E_CONFIG_INVALID"

	// Acquisition
	ENoMatch      Code = "E_NO_MATCH"      // no file matched the pattern (normal no-op)
	ENotStable    Code = "E_NOT_STABLE"    // quiet-period budget elapsed
	EFileVanished Code = "E_FILE_VANISHED" // candidate disappeared mid-poll
	EWatchDir     Code = "E_WATCH_DIR"     // watch directory missing or unreadable

	// Transform
	EHeaderMismatch Code = "E_HEADER_MISMATCH"
	ERaggedRow      Code = "E_RAGGED_ROW"
	EEmptyFile      Code = "E_EMPTY_FILE"

	// Upload
	EAuthInvalid     Code = "E_AUTH_INVALID"     // missing credential, detected locally
	EUploadFatal     Code = "E_UPLOAD_FATAL"     // 4xx or malformed request
	EUploadExhausted Code = "E_UPLOAD_EXHAUSTED" // retry budget spent on retryable failures

	// Enrichment
	ELookupFailed Code = "E_LOOKUP_FAILED"
	EPostFailed   Code = "E_POST_FAILED"

	// Archive
	EArchiveFailed Code = "E_ARCHIVE_FAILED"

	// Producer
	EProducerSpawn Code = "E_PRODUCER_SPAWN"
)

// FerryError is the standard error type for fileferry errors.
type FerryError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns the stable error format: "CODE: message".
func (e *FerryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *FerryError) Unwrap() error {
	return e.Cause
}

// New creates a new FerryError with the given code and message.
func New(code Code, msg string) error {
	return &FerryError{Code: code, Msg: msg}
}

// Newf creates a new FerryError with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &FerryError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// NewWithDetails creates a new FerryError with code, message, and details.
// Details map is defensively copied (nil if empty).
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &FerryError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new FerryError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &FerryError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new FerryError wrapping an underlying error with details.
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &FerryError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// GetCode extracts the error code from an error, or empty string if not a FerryError.
func GetCode(err error) Code {
	var fe *FerryError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// AsFerryError returns (*FerryError, true) if err is or wraps a FerryError.
func AsFerryError(err error) (*FerryError, bool) {
	var fe *FerryError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}
