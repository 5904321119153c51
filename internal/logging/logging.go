package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field names written by New; package logtail reads them back.
const (
	TimeKey    = "ts"
	LevelKey   = "level"
	NameKey    = "logger"
	MessageKey = "msg"
	CallerKey  = "caller"
)

// Level converts a config level name to a zap level. Unknown names mean info.
func Level(name string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a JSON logger appending to path. The terminal belongs to the
// UI, so nothing is written to stdout or stderr.
func New(path, level string) (*zap.Logger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(Level(level)),
		Encoding:         "json",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        TimeKey,
			LevelKey:       LevelKey,
			NameKey:        NameKey,
			CallerKey:      CallerKey,
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     MessageKey,
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.TimeEncoderOfLayout(time.RFC3339Nano),
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
