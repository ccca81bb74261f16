package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger and returns the level handle that adjusts it at runtime.
// level is one of debug, info, warn, error; encoding is "console" for development,
// anything else selects json
func New(level string, encoding string) (*zap.Logger, zap.AtomicLevel, error) {
	atom := zap.NewAtomicLevelAt(ParseLevel(level))

	cfg := zap.NewProductionConfig()
	cfg.Level = atom
	cfg.Encoding = "json"
	cfg.Sampling = nil
	cfg.OutputPaths = []string{"stdout"}
	if encoding == "console" {
		cfg.Encoding = "console"
		cfg.Development = true
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.SecondsDurationEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, atom, fmt.Errorf("build logger: %w", err)
	}

	return logger, atom, nil
}

// ParseLevel converts a level name, falling back to info for unknown names
func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
