package logger

import (
	"context"
)

// ContextKey is used for context values
type ContextKey string

const (
	// ConnectionIDKey is the context key for the client connection id
	ConnectionIDKey ContextKey = "connection_id"
	// StatementIDKey is the context key for the prepared statement id
	StatementIDKey ContextKey = "statement_id"
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
)

// WithContextValue adds a value to the context for logging
func WithContextValue(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// RequestID returns the request id stored in ctx, if any
func RequestID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(RequestIDKey).(string)
	return id, ok && id != ""
}

// ExtractContextValues extracts logging-relevant values from context
func ExtractContextValues(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	var args []any

	if connID, ok := ctx.Value(ConnectionIDKey).(uint32); ok {
		args = append(args, "connection_id", connID)
	}

	if stmtID, ok := ctx.Value(StatementIDKey).(uint32); ok {
		args = append(args, "statement_id", stmtID)
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		args = append(args, "request_id", requestID)
	}

	return args
}
