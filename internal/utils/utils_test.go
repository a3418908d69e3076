package utils

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsShutdownError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"io.EOF error", io.EOF, true},
		{"io.ErrUnexpectedEOF error", io.ErrUnexpectedEOF, true},
		{"connection refused error", errors.New("dial tcp: connection refused"), true},
		{"connection reset error", errors.New("read: connection reset by peer"), true},
		{"broken pipe error", errors.New("write: broken pipe"), true},
		{"closed network connection error", errors.New("use of closed network connection"), true},
		{"EOF in error message", errors.New("unexpected EOF while reading"), true},
		{"regular error", errors.New("some random error"), false},
		{"timeout error (not shutdown)", errors.New("context deadline exceeded"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsShutdownError(tc.err))
		})
	}
}

func TestLogError_LevelFollowsShutdownClassification(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	LogError(logger, io.EOF, "connection ended")
	LogError(logger, errors.New("disk full"), "write failed")

	entries := logs.All()
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

func TestRecover_SwallowsPanic(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	func() {
		defer Recover(logger)
		panic("boom")
	}()

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, zap.ErrorLevel, logs.All()[0].Level)
}
