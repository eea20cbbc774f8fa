// Package logging builds the zap loggers shared by every binary.
package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GlobalLogLevel is shared by all loggers built here so the level can be
// changed after startup.
var GlobalLogLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

// SetLevel parses a level name ("debug", "info", "warn", "error") into
// GlobalLogLevel.
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return errors.Wrapf(err, "log level %q", level)
	}
	GlobalLogLevel.SetLevel(l)
	return nil
}

// NewLogger returns a named console logger writing to stderr.
func NewLogger(name string) *zap.SugaredLogger {
	cfg := zap.Config{
		Level:    GlobalLogLevel,
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	logger, err := cfg.Build()
	if err != nil {
		// the config above is static; Build only fails on bad sinks
		logger = zap.NewExample()
	}
	return logger.Sugar().Named(name)
}
