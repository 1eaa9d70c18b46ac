// Package log provides structured logging for inspiral.
// It wraps go-kit's logfmt logger with level filtering.
package log

import (
	"io"
	"os"
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

var (
	mu     sync.RWMutex
	out    io.Writer = os.Stderr
	lvl              = "info"
	logger kitlog.Logger
)

// Init sets the global level. Valid levels: "debug", "info", "warn", "error".
// Unknown levels fall back to "info".
func Init(level string) {
	mu.Lock()
	defer mu.Unlock()
	lvl = level
	logger = build(out, level)
}

// SetOutput redirects the global logger, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	logger = build(out, lvl)
}

func build(w io.Writer, name string) kitlog.Logger {
	l := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	l = kitlog.With(l, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.Caller(5))
	return level.NewFilter(l, allow(name))
}

func allow(name string) level.Option {
	switch name {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	case "none":
		return level.AllowNone()
	default:
		return level.AllowInfo()
	}
}

// L returns the global logger instance.
func L() kitlog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init("info")
	return L()
}

func Debug(keyvals ...interface{}) {
	_ = level.Debug(L()).Log(keyvals...)
}

func Info(keyvals ...interface{}) {
	_ = level.Info(L()).Log(keyvals...)
}

func Warn(keyvals ...interface{}) {
	_ = level.Warn(L()).Log(keyvals...)
}

func Error(keyvals ...interface{}) {
	_ = level.Error(L()).Log(keyvals...)
}

// With returns a logger carrying the given key/value pairs.
func With(keyvals ...interface{}) kitlog.Logger {
	return kitlog.With(L(), keyvals...)
}
