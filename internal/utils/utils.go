// Package utils holds small cross-cutting helpers: panic recovery and
// the error classification the CLI's transport loop uses to decide
// whether a connection failure is an ordinary teardown worth logging
// at Info, or something worth Error-level attention.
package utils

import (
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"
)

// IsShutdownError reports whether err is the kind of transport error
// that routinely happens when a peer or listener closes a connection:
// EOF, connection reset, broken pipe, or use of an already-closed
// socket. The CLI logs these at Info instead of Error.
func IsShutdownError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"use of closed network connection",
		"EOF",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// LogError logs err at the level IsShutdownError implies, attaching
// msg and any extra zap fields.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if IsShutdownError(err) {
		logger.Info(msg, fields...)
		return
	}
	logger.Error(msg, fields...)
}

// Recover logs and swallows a panic recovered from the calling
// goroutine's deferred call, instead of letting it crash the process.
// Intended for use as `defer utils.Recover(logger)` at the top of a
// long-running session goroutine, matching the pattern the rest of
// the corpus uses around its worker goroutines.
func Recover(logger *zap.Logger) {
	if r := recover(); r != nil {
		logger.Error("recovered from panic", zap.Any("panic", r))
	}
}
