// Package log builds the zap.Logger the CLI and the channel's
// SessionInitCallback hook use, following the console-encoder,
// atomic-level setup the rest of the corpus wires up by hand rather
// than taking zap's defaults as-is.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger. debug raises the level to Debug and
// re-enables caller/stacktrace annotations; otherwise the logger runs
// at Info with stacktraces suppressed, matching a CLI tool's default
// noise level.
func New(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.DisableStacktrace = false
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.EncodeCaller = nil
	}

	return cfg.Build()
}

// ModuleLevel returns a logger whose level is independently settable
// from the parent's, for a component (e.g. "channel", "transport")
// that needs its own verbosity separate from the rest of the CLI.
func ModuleLevel(base *zap.Logger, name string, level zapcore.Level) *zap.Logger {
	atom := zap.NewAtomicLevelAt(level)
	return base.Named(name).WithOptions(zap.IncreaseLevel(atom))
}
