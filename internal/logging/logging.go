// File: internal/logging/logging.go
// Package logging configures the library's structured loggers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu            sync.RWMutex
	defaultLogger *zap.Logger
)

// Config controls log output.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// Init installs the default logger from cfg.
func Init(cfg Config) error {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), parseLevel(cfg.Level))
	mu.Lock()
	defaultLogger = zap.New(core)
	mu.Unlock()
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// L returns the default logger.
func L() *zap.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		mu.Lock()
		if defaultLogger == nil {
			defaultLogger, _ = zap.NewProduction()
		}
		l = defaultLogger
		mu.Unlock()
	}
	return l
}

// SafeClose returns the logger for resource close failures.
func SafeClose() *zap.Logger { return L().Named("safe-close") }

// ChannelListener returns the logger for listener invocation failures.
func ChannelListener() *zap.Logger { return L().Named("channel-listener") }
