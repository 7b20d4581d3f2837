// Package log is a thin key-value logging facade over zap. Call sites use
// Info/Debug/Error with alternating key, value pairs; the facade owns the
// single process-wide logger so no other package needs to import zap.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu       sync.Mutex
	sugar    *zap.SugaredLogger
	atomicLv = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func logger() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	if sugar == nil {
		cfg := zap.NewProductionConfig()
		cfg.Level = atomicLv
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		l, err := cfg.Build(zap.AddCallerSkip(2))
		if err != nil {
			// zap's production config cannot realistically fail to build;
			// fall back to the global no-op logger rather than panic.
			l = zap.NewNop()
		}
		sugar = l.Sugar()
	}
	return sugar
}

// SetLevel adjusts the minimum level for all subsequent log output.
func SetLevel(l Level) {
	switch l {
	case LevelDebug:
		atomicLv.SetLevel(zapcore.DebugLevel)
	case LevelError:
		atomicLv.SetLevel(zapcore.ErrorLevel)
	default:
		atomicLv.SetLevel(zapcore.InfoLevel)
	}
}

func Debug(msg string, kv ...any) {
	logger().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	logger().Infow(msg, kv...)
}

// Error logs msg with err prepended to the key-value list.
func Error(msg string, err error, kv ...any) {
	extended := append([]any{"err", err}, kv...)
	logger().Errorw(msg, extended...)
}

// Sync flushes buffered log output; call on shutdown.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if sugar != nil {
		_ = sugar.Sync()
	}
}
