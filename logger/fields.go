package logger

import (
	"fmt"
	"log/slog"
)

// Field helpers for structured logging
var (
	String = slog.String
	Int    = slog.Int
	Int64  = slog.Int64
	Bool   = slog.Bool
	Any    = slog.Any

	ErrorField = func(err error) slog.Attr {
		if err == nil {
			return slog.String("error", "<nil>")
		}
		return slog.String("error", err.Error())
	}

	Component = func(name string) slog.Attr {
		return slog.String("component", name)
	}

	Operation = func(name string) slog.Attr {
		return slog.String("operation", name)
	}

	// ColumnType renders a wire column type tag as hex
	ColumnType = func(tag byte) slog.Attr {
		return slog.String("column_type", fmt.Sprintf("0x%02x", tag))
	}
)
