package internal

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// ParseLogLevel maps ERROR/WARN/INFO/DEBUG/TRACE onto a level, defaulting to INFO
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "WARN", "WARNING":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	case "TRACE":
		return LogLevelTrace
	}
	return LogLevelInfo
}

// Logger provides leveled logging on top of a zap sugared logger. Trace
// is emitted at zap's debug level with a trace marker.
type Logger struct {
	level LogLevel
	sugar *zap.SugaredLogger
}

// NewLogger creates a new logger with the specified level writing to stderr
func NewLogger(level LogLevel) *Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(level.zap()),
	)
	return &Logger{level: level, sugar: zap.New(core).Sugar()}
}

// NewNopLogger discards everything; used by tests
func NewNopLogger() *Logger {
	return &Logger{level: LogLevelError, sugar: zap.NewNop().Sugar()}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	return NewLogger(ParseLogLevel(os.Getenv("LOG_LEVEL")))
}

func (l LogLevel) zap() zapcore.Level {
	switch l {
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

// With returns a child logger carrying structured key/value context
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{level: l.level, sugar: l.sugar.With(keysAndValues...)}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LogLevelTrace {
		l.sugar.Debugf("[TRACE] "+format, args...)
	}
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
