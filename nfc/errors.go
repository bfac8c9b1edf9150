package nfc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of NFC error for programmatic handling.
type ErrorCode int

const (
	// Tag operation errors (100-199)
	ErrCodeNotSupported ErrorCode = iota + 100
	ErrCodeTagRemoved
	ErrCodeReadFailed
	ErrCodeInvalidData
)

const (
	// Reader session errors (200-299)
	ErrCodeNoDevice ErrorCode = iota + 200
	ErrCodeTimeout
	ErrCodeCancelled
	ErrCodeRequestPending
	ErrCodeNotRegistered
	ErrCodeNotStarted
)

// NFCError provides structured error information for programmatic handling.
type NFCError struct {
	Code    ErrorCode
	Op      string // Operation that failed (e.g., "RequestTechnology", "ReadData")
	TagUID  string // Optional: UID of tag involved
	Message string // Human-readable message
	Cause   error  // Underlying error
}

func (e *NFCError) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.TagUID != "" {
		sb.WriteString(" (tag ")
		sb.WriteString(e.TagUID)
		sb.WriteString(")")
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *NFCError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *NFCError carrying the same code, so
// sentinel values like ErrTimeout match any timeout regardless of Op.
func (e *NFCError) Is(target error) bool {
	if t, ok := target.(*NFCError); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrTimeout        = &NFCError{Code: ErrCodeTimeout, Message: "operation timed out"}
	ErrCancelled      = &NFCError{Code: ErrCodeCancelled, Message: "request cancelled"}
	ErrRequestPending = &NFCError{Code: ErrCodeRequestPending, Message: "a technology request is already pending"}
	ErrNotRegistered  = &NFCError{Code: ErrCodeNotRegistered, Message: "tag event is not registered"}
	ErrNoDevice       = &NFCError{Code: ErrCodeNoDevice, Message: "no NFC device connected"}
	ErrNotStarted     = &NFCError{Code: ErrCodeNotStarted, Message: "NFC reader not started"}
)

// NewNotSupportedError creates an error for unsupported operations.
func NewNotSupportedError(op string) *NFCError {
	return &NFCError{
		Code:    ErrCodeNotSupported,
		Op:      op,
		Message: "operation not supported",
	}
}

// NewTagRemovedError creates an error for when a tag is removed mid-operation.
func NewTagRemovedError(op string, cause error) *NFCError {
	return &NFCError{
		Code:    ErrCodeTagRemoved,
		Op:      op,
		Message: "tag removed during operation",
		Cause:   cause,
	}
}

// NewReadError creates an error for read failures.
func NewReadError(op, tagUID string, cause error) *NFCError {
	return &NFCError{
		Code:    ErrCodeReadFailed,
		Op:      op,
		TagUID:  tagUID,
		Message: "read failed",
		Cause:   cause,
	}
}

// NewTimeoutError creates an error for a reader operation that ran out of time.
func NewTimeoutError(op string, cause error) *NFCError {
	return &NFCError{
		Code:    ErrCodeTimeout,
		Op:      op,
		Message: "operation timed out",
		Cause:   cause,
	}
}

// NewCancelledError creates an error for a request aborted by the caller.
func NewCancelledError(op string, cause error) *NFCError {
	return &NFCError{
		Code:    ErrCodeCancelled,
		Op:      op,
		Message: "request cancelled",
		Cause:   cause,
	}
}

// IsNotSupportedError checks if an error indicates an unsupported operation.
func IsNotSupportedError(err error) bool {
	return hasCode(err, ErrCodeNotSupported)
}

// IsTagRemovedError checks if an error indicates the tag was removed.
func IsTagRemovedError(err error) bool {
	if err == nil {
		return false
	}
	if hasCode(err, ErrCodeTagRemoved) {
		return true
	}
	// libnfc reports removal as plain strings
	errStr := err.Error()
	return strings.Contains(errStr, "tag removed") ||
		strings.Contains(errStr, "Target was removed") ||
		strings.Contains(errStr, "RF Transmission Error")
}

// IsTimeoutError checks if an error indicates a timeout, either ours or libnfc's.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if hasCode(err, ErrCodeTimeout) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// IsCancelledError checks if an error indicates a cancelled request.
func IsCancelledError(err error) bool {
	return hasCode(err, ErrCodeCancelled)
}

// IsDeviceError checks if an error came from the reader itself rather than
// from a tag. These errors make the DeviceManager drop its connection.
func IsDeviceError(err error) bool {
	if err == nil {
		return false
	}
	if hasCode(err, ErrCodeNoDevice) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Input / Output Error") ||
		strings.Contains(errStr, "Invalid argument") ||
		strings.Contains(errStr, "device closed") ||
		strings.Contains(errStr, "broken pipe")
}

// GetErrorCode extracts the ErrorCode from an error if it's an NFCError.
// Returns 0 if the error is not an NFCError.
func GetErrorCode(err error) ErrorCode {
	var nfcErr *NFCError
	if errors.As(err, &nfcErr) {
		return nfcErr.Code
	}
	return 0
}

// WrapError wraps an existing error with NFC context.
func WrapError(code ErrorCode, op, message string, cause error) *NFCError {
	return &NFCError{
		Code:    code,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// Errorf creates an NFCError with a formatted message.
func Errorf(code ErrorCode, op, format string, args ...any) *NFCError {
	return &NFCError{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

func hasCode(err error, code ErrorCode) bool {
	return err != nil && GetErrorCode(err) == code
}
