package channel

import (
	"errors"
	"fmt"
)

// Error taxonomy (spec §7). These are sentinel-comparable via errors.Is;
// NeedsTask additionally carries the runnable the caller must execute.

var (
	// ErrClosedChannel is returned for any operation on a session that is
	// invalid or has already sent its close_notify.
	ErrClosedChannel = errors.New("channel: closed")
	// ErrNeedsRead is non-blocking backpressure: the transport had no
	// bytes ready; retry once it does.
	ErrNeedsRead = errors.New("channel: needs read")
	// ErrNeedsWrite is non-blocking backpressure: the transport couldn't
	// accept bytes; retry once it can.
	ErrNeedsWrite = errors.New("channel: needs write")
	// ErrNeedsHandshake is returned by Read/Write when ExplicitHandshake
	// is set and Handshake() hasn't completed yet.
	ErrNeedsHandshake = errors.New("channel: needs handshake")
	// ErrReadOnlyDestination is raised when Read is given a read-only
	// destination buffer.
	ErrReadOnlyDestination = errors.New("channel: destination is read-only")
	// errEOF is internal: the transport returned EOF. It never escapes
	// the package — callers see either a -1 read result or
	// ErrClosedChannel, per spec §7.
	errEOF = errors.New("channel: transport eof")
)

// NeedsTaskError is ErrNeedsTask's concrete type: it carries the
// delegated task the caller must run before retrying (spec §9 "task
// runnable escape").
type NeedsTaskError struct {
	Task func() error
}

func (e *NeedsTaskError) Error() string { return "channel: needs task" }

// Is makes errors.Is(err, ErrNeedsTask) work without exposing the task.
func (e *NeedsTaskError) Is(target error) bool { return target == ErrNeedsTask }

// ErrNeedsTask is the sentinel matched by errors.Is against a
// *NeedsTaskError.
var ErrNeedsTask = errors.New("channel: needs task")

// CallbackError wraps a panic-free error returned by the session-init
// callback. Per spec §9, negotiated is left false when this happens; the
// caller must call Handshake() again to retry negotiation.
type CallbackError struct {
	Err error
}

func (e *CallbackError) Error() string { return fmt.Sprintf("channel: session init callback: %v", e.Err) }
func (e *CallbackError) Unwrap() error { return e.Err }

// TLSError wraps an error surfaced by the underlying engine during
// wrap/unwrap or handshake. The session is marked invalid before this is
// returned.
type TLSError struct {
	Err error
}

func (e *TLSError) Error() string { return fmt.Sprintf("channel: tls protocol error: %v", e.Err) }
func (e *TLSError) Unwrap() error { return e.Err }
