// Package logging builds the zap logger shared by all scheduler components.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultFilename is used when no log file is configured.
const DefaultFilename = "hds_output.log"

// ParseLevel converts a textual level (debug, info, warn, error) into a zap level.
// An empty string means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unsupported log level: %q", level)
}

// New creates a JSON logger writing to filename. When console is true the
// output is mirrored to stderr.
func New(filename, level string, console bool) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		filename = DefaultFilename
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{filename}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if console {
		cfg.OutputPaths = append(cfg.OutputPaths, "stderr")
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger for %s: %w", filename, err)
	}
	return logger, nil
}
