// Package engine defines the contract the pump drives: an opaque,
// record-oriented crypto engine that wraps plaintext into records and
// unwraps records into plaintext, reporting handshake status and
// delegated tasks as it goes. Cryptography itself is deliberately out of
// scope here — concrete engines live in sibling packages (noiseengine,
// testengine).
package engine

import "github.com/tlschannel/tlschannel/internal/buffers"

// Status is the outcome of a single Wrap or Unwrap call.
type Status int

const (
	// OK means bytes were produced and/or consumed normally.
	OK Status = iota
	// Closed means the peer's close_notify (or equivalent) was
	// processed; no more application data will follow.
	Closed
	// BufferOverflow means the destination had no room for the engine's
	// output; the caller must grow it and retry.
	BufferOverflow
	// BufferUnderflow means the source didn't contain a full record; the
	// caller must read more bytes from the transport and retry.
	BufferUnderflow
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case Closed:
		return "CLOSED"
	case BufferOverflow:
		return "BUFFER_OVERFLOW"
	case BufferUnderflow:
		return "BUFFER_UNDERFLOW"
	default:
		return "UNKNOWN"
	}
}

// HandshakeStatus is the engine's current need.
type HandshakeStatus int

const (
	// NotHandshaking means no handshake is in progress (before the first
	// one, or a pass-through engine that never handshakes).
	NotHandshaking HandshakeStatus = iota
	// NeedWrap means the engine has an outbound handshake message ready.
	NeedWrap
	// NeedUnwrap means the engine needs more handshake bytes from the peer.
	NeedUnwrap
	// NeedTask means a delegated task (e.g. a key derivation) must run
	// before the engine can proceed.
	NeedTask
	// Finished means the handshake (or renegotiation) just completed.
	Finished
)

func (s HandshakeStatus) String() string {
	switch s {
	case NotHandshaking:
		return "NOT_HANDSHAKING"
	case NeedWrap:
		return "NEED_WRAP"
	case NeedUnwrap:
		return "NEED_UNWRAP"
	case NeedTask:
		return "NEED_TASK"
	case Finished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of one Wrap or Unwrap call: the record status, the
// engine's handshake status immediately after the call, and the byte
// counts moved.
type Result struct {
	Status          Status
	HandshakeStatus HandshakeStatus
	BytesConsumed   int
	BytesProduced   int
}

// Engine is the contract the pump drives. Implementations are not
// expected to be safe for concurrent use; the pump's lock discipline
// (spec §5) serializes all access.
type Engine interface {
	// BeginHandshake starts (or restarts, for renegotiation) the
	// handshake state machine.
	BeginHandshake() error

	// HandshakeStatus reports what the engine currently needs.
	HandshakeStatus() HandshakeStatus

	// Wrap reads plaintext from source and appends encrypted output to
	// outEncrypted's tail.
	Wrap(source buffers.Set, outEncrypted *buffers.Holder) (Result, error)

	// Unwrap reads encrypted records from inEncrypted's pending bytes and
	// appends decrypted plaintext to dest.
	Unwrap(inEncrypted *buffers.Holder, dest buffers.Set) (Result, error)

	// DelegatedTask returns the next pending background task, or nil if
	// none is pending. Callers run it and call Engine again to make
	// progress (spec §9 "task runnable escape").
	DelegatedTask() func() error

	// CloseOutbound signals that no more application data will be wrapped
	// and the engine should produce its closing record(s) on the next
	// Wrap call.
	CloseOutbound()

	// Protocol reports the negotiated protocol name, or "" before
	// negotiation completes. Used only by the renegotiation version gate.
	Protocol() string
}
