// Package logging configures the process-wide logger: one timestamped file sink
// and one console sink sharing a severity threshold, reconfigurable at runtime
// without leaking file handles or accumulating sinks.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultLevel is used when Setup receives an empty level name.
	DefaultLevel = "INFO"
	// DefaultLogDir holds auto-generated log files.
	DefaultLogDir = "logs"

	// CriticalLevel is the most severe level a caller is expected to log at.
	// The logger is never built in development mode, so DPanic does not panic.
	CriticalLevel = zapcore.DPanicLevel

	rootLoggerName = "root"
)

// ErrInvalidLevel is returned when a level name is not one of DEBUG, INFO,
// WARNING, ERROR or CRITICAL.
var ErrInvalidLevel = errors.New("invalid logging level")

// ParseLevel resolves a case-insensitive level name to its zap severity.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "INFO":
		return zapcore.InfoLevel, nil
	case "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	case "CRITICAL":
		return CriticalLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, name)
	}
}

// LevelName returns the label printed for a severity.
func LevelName(level zapcore.Level) string {
	switch level {
	case zapcore.WarnLevel:
		return "WARNING"
	case CriticalLevel:
		return "CRITICAL"
	default:
		return level.CapitalString()
	}
}

// NewBootstrap returns a console-format logger writing to w at INFO and
// above. It is independent from the sink set, so it reports failures that
// happen before Setup attaches sinks or after Shutdown detaches them.
func NewBootstrap(w io.Writer, name string) *zap.Logger {
	core := zapcore.NewCore(newConsoleEncoder(), zapcore.Lock(zapcore.AddSync(w)), zapcore.InfoLevel)
	return zap.New(core).Named(name)
}
