// Package logger holds the process-wide zap logger used by the ankidb CLI.
//
// Library code takes a *zap.SugaredLogger explicitly; only command wiring
// should call Get.
package logger

import (
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	// Callers that skip Initialize get a silent logger rather than a nil one.
	singleton.Store(zap.NewNop().Sugar())
}

// Get returns the current process logger.
func Get() *zap.SugaredLogger {
	return singleton.Load()
}

// Set replaces the process logger. Intended for tests.
func Set(l *zap.SugaredLogger) {
	singleton.Store(l)
}

// Initialize installs a stderr logger. Unstructured output is human-readable
// console text; otherwise records are JSON.
func Initialize(debug, unstructured bool) {
	singleton.Store(New(os.Stderr, debug, unstructured))
}

// New builds a logger writing to w.
func New(w io.Writer, debug, unstructured bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	var enc zapcore.Encoder
	if unstructured {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	} else {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}
