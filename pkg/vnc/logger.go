package vnc

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a *zap.Logger to the Logger interface.
type ZapLogger struct {
	log *zap.Logger
}

// NewZapLogger wraps l. A nil l yields a no-op logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}

	return &ZapLogger{log: l}
}

// NewDevelopmentLogger builds a console logger at the given level
// ("debug", "info", "warn", "error").
func NewDevelopmentLogger(level string) (*ZapLogger, error) {
	atomicLevel := zap.NewAtomicLevel()

	err := atomicLevel.UnmarshalText([]byte(level))
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	cfg := zap.Config{
		Level:            atomicLevel,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return NewZapLogger(l), nil
}

// Zap returns the underlying logger.
func (z *ZapLogger) Zap() *zap.Logger {
	return z.log
}

// Debug logs at debug level.
func (z *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	z.log.Debug(msg, toZapFields(fields)...)
}

// Info logs at info level.
func (z *ZapLogger) Info(msg string, fields map[string]interface{}) {
	z.log.Info(msg, toZapFields(fields)...)
}

// Warn logs at warn level.
func (z *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	z.log.Warn(msg, toZapFields(fields)...)
}

// Error logs at error level.
func (z *ZapLogger) Error(msg string, fields map[string]interface{}) {
	z.log.Error(msg, toZapFields(fields)...)
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}

	return out
}

// NopLogger discards everything.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, map[string]interface{}) {}

// Info implements Logger.
func (NopLogger) Info(string, map[string]interface{}) {}

// Warn implements Logger.
func (NopLogger) Warn(string, map[string]interface{}) {}

// Error implements Logger.
func (NopLogger) Error(string, map[string]interface{}) {}
