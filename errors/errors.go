// Package errors provides the coded error type shared by the proxy's wire codecs.
package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/guileen/shardproxy/logger"
)

// Error codes for different types of errors
const (
	ErrCodeUnknown               = "unknown_error"
	ErrCodeUnsupportedColumnType = "unsupported_column_type"
	ErrCodeMalformedTemporal     = "malformed_temporal_value"
	ErrCodeValueFormat           = "value_format_error"
	ErrCodeTruncated             = "truncated_payload"
	ErrCodeProtocol              = "protocol_error"
	ErrCodeResource              = "resource_error"
	ErrCodeValidation            = "validation_error"
	ErrCodeNotFound              = "not_found"
)

// ProxyError represents a custom error type for the proxy
type ProxyError struct {
	Code    string
	Message string
	Op      string
	Err     error
}

// Error implements the error interface
func (e *ProxyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap implements the unwrap interface for error chaining
func (e *ProxyError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target error
func (e *ProxyError) Is(target error) bool {
	if t, ok := target.(*ProxyError); ok {
		return e.Code == t.Code
	}
	return false
}

// Log logs the error with the provided logger
func (e *ProxyError) Log(ctx context.Context, logLevel slog.Level) {
	logFields := []any{
		"error_code", e.Code,
		"operation", e.Op,
		"message", e.Message,
	}

	if e.Err != nil {
		logFields = append(logFields, "cause", e.Err.Error())
	}

	switch logLevel {
	case slog.LevelDebug:
		logger.DebugContext(ctx, "Proxy error occurred", logFields...)
	case slog.LevelInfo:
		logger.InfoContext(ctx, "Proxy error occurred", logFields...)
	case slog.LevelWarn:
		logger.WarnContext(ctx, "Proxy error occurred", logFields...)
	default:
		logger.ErrorContext(ctx, "Proxy error occurred", logFields...)
	}
}

// New creates a new ProxyError
func New(code, message string) *ProxyError {
	return &ProxyError{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new ProxyError with formatted message
func Errorf(code, format string, args ...interface{}) *ProxyError {
	return &ProxyError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with context
func Wrap(err error, code, op string) *ProxyError {
	return &ProxyError{
		Code:    code,
		Message: err.Error(),
		Op:      op,
		Err:     err,
	}
}

// Wrapf wraps an existing error with formatted context
func Wrapf(err error, code, op, format string, args ...interface{}) *ProxyError {
	return &ProxyError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Op:      op,
		Err:     err,
	}
}

// TemporalLengthError describes a temporal payload whose length byte is not
// one of the lengths its wire type allows.
type TemporalLengthError struct {
	Kind     string
	Expected []int
	Got      int
}

func (e *TemporalLengthError) Error() string {
	expected := make([]string, len(e.Expected))
	for i, n := range e.Expected {
		expected[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("wrong length %d of %s, expected one of %s", e.Got, e.Kind, strings.Join(expected, "/"))
}

// NewUnsupportedColumnType reports a decode requested for a tag outside the registry
func NewUnsupportedColumnType(op string, tag byte) *ProxyError {
	return &ProxyError{
		Code:    ErrCodeUnsupportedColumnType,
		Message: fmt.Sprintf("cannot find MySQL type 0x%02x in column type", tag),
		Op:      op,
	}
}

// NewMalformedTemporal reports a temporal length byte outside the allowed set
func NewMalformedTemporal(op, kind string, got int, expected ...int) *ProxyError {
	cause := &TemporalLengthError{Kind: kind, Expected: expected, Got: got}
	return &ProxyError{
		Code:    ErrCodeMalformedTemporal,
		Message: cause.Error(),
		Op:      op,
		Err:     cause,
	}
}

// NewMalformedFraction reports a temporal fractional field above the largest
// representable fraction of a second
func NewMalformedFraction(op, kind string, got uint64, limit int) *ProxyError {
	return &ProxyError{
		Code:    ErrCodeMalformedTemporal,
		Message: fmt.Sprintf("fractional part %d of %s out of range 0..%d", got, kind, limit),
		Op:      op,
	}
}

// NewValueFormatError reports a bound value whose text does not fit the target width
func NewValueFormatError(op string, value string, err error) *ProxyError {
	return &ProxyError{
		Code:    ErrCodeValueFormat,
		Message: fmt.Sprintf("cannot format %q for the wire", value),
		Op:      op,
		Err:     err,
	}
}

// NewTruncatedError reports a read past the end of the payload
func NewTruncatedError(op string, need, have int) *ProxyError {
	return &ProxyError{
		Code:    ErrCodeTruncated,
		Message: fmt.Sprintf("need %d bytes, %d remaining", need, have),
		Op:      op,
	}
}

func NewProtocolError(op, msg string) *ProxyError {
	return &ProxyError{
		Code:    ErrCodeProtocol,
		Message: msg,
		Op:      op,
	}
}

func NewProtocolErrorf(op, format string, args ...interface{}) *ProxyError {
	return &ProxyError{
		Code:    ErrCodeProtocol,
		Message: fmt.Sprintf(format, args...),
		Op:      op,
	}
}

func NewResourceErrorf(op, format string, args ...interface{}) *ProxyError {
	return &ProxyError{
		Code:    ErrCodeResource,
		Message: fmt.Sprintf(format, args...),
		Op:      op,
	}
}

func NewValidationErrorf(op, format string, args ...interface{}) *ProxyError {
	return &ProxyError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
		Op:      op,
	}
}

// Code returns the code of the first ProxyError in err's chain
func Code(err error) string {
	var e *ProxyError
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}

func hasCode(err error, code string) bool {
	var e *ProxyError
	return errors.As(err, &e) && e.Code == code
}

// IsUnsupportedColumnType checks if an error is an unsupported column type error
func IsUnsupportedColumnType(err error) bool {
	return hasCode(err, ErrCodeUnsupportedColumnType)
}

// IsMalformedTemporal checks if an error is a malformed temporal value error
func IsMalformedTemporal(err error) bool {
	return hasCode(err, ErrCodeMalformedTemporal)
}

// IsValueFormatError checks if an error is a value format error
func IsValueFormatError(err error) bool {
	return hasCode(err, ErrCodeValueFormat)
}

// IsTruncated checks if an error is a truncated payload error
func IsTruncated(err error) bool {
	return hasCode(err, ErrCodeTruncated)
}

// IsProtocolError checks if an error is a protocol error
func IsProtocolError(err error) bool {
	return hasCode(err, ErrCodeProtocol)
}

// IsResourceError checks if an error is a resource error
func IsResourceError(err error) bool {
	return hasCode(err, ErrCodeResource)
}

// IsNotFound checks if an error indicates something was not found
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// LogError logs an error at error level
func LogError(ctx context.Context, err error) {
	var e *ProxyError
	if errors.As(err, &e) {
		e.Log(ctx, slog.LevelError)
	} else {
		logger.ErrorContext(ctx, "Unexpected error occurred", "error", err.Error())
	}
}

// LogWarning logs an error at warning level
func LogWarning(ctx context.Context, err error) {
	var e *ProxyError
	if errors.As(err, &e) {
		e.Log(ctx, slog.LevelWarn)
	} else {
		logger.WarnContext(ctx, "Unexpected error occurred", "error", err.Error())
	}
}
