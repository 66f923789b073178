// Package log wraps log/slog with the module-tagged free functions the rest
// of this tree calls into, in the style of a small internal logging
// facility shared by every pipeline stage rather than each stage building
// its own *slog.Logger.
package log

import (
	"log/slog"
	"os"
	"sync/atomic"
)

// Pipeline stage module tags, attached to every record as "module".
const (
	Lexer         = "lexer"
	Parser        = "parser"
	ConstExtract  = "constx"
	WriteAnalysis = "writeanalysis"
	FuncDiscovery = "funcdiscovery"
	Liveness      = "liveness"
	Emit          = "emit"
	Pipeline      = "pipeline"
)

var root atomic.Value

func init() {
	root.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
}

// Init installs the default logger at the given level ("debug", "info",
// "warn", "error"); an unrecognised level is treated as "warn".
func Init(level string) {
	root.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)})))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func logger() *slog.Logger {
	return root.Load().(*slog.Logger)
}

func Debug(module, msg string, ctx ...any) {
	logger().Debug(msg, append([]any{"module", module}, ctx...)...)
}

func Info(module, msg string, ctx ...any) {
	logger().Info(msg, append([]any{"module", module}, ctx...)...)
}

func Warn(module, msg string, ctx ...any) {
	logger().Warn(msg, append([]any{"module", module}, ctx...)...)
}

func Error(module, msg string, ctx ...any) {
	logger().Error(msg, append([]any{"module", module}, ctx...)...)
}
