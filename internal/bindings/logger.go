//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the bindings package logger. It is a no-op logger unless
// SetLogger was called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// SetLogger configures the bindings package logger. nil restores the
// no-op logger. Safe for concurrent use.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
