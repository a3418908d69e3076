// Package testengine provides a deterministic, non-cryptographic
// engine.Engine used to exercise the pump in isolation from any real
// handshake. It performs a trivial two-message handshake (so the pump's
// NEED_WRAP/NEED_UNWRAP alternation and doWorkLoop logic are actually
// exercised) and then passes bytes through unmodified, framed with a
// 4-byte big-endian length prefix so wrap/unwrap still operate on
// discrete records the way a real TLS engine would.
//
// Spec §4.3.6 explicitly tolerates "a pass-through non-encrypting engine"
// in handshakeStep's FINISHED/NOT_HANDSHAKING branch; this is that engine.
package testengine

import (
	"encoding/binary"
	"errors"

	"github.com/tlschannel/tlschannel/engine"
	"github.com/tlschannel/tlschannel/internal/buffers"
)

const headerLen = 4

// maxChunkPayload caps how much of the source a single Wrap call will
// frame, so a write bigger than one record forces the wrap loop
// through several iterations, the way a real record-bounded TLS
// engine would (spec §8 scenario 2).
const maxChunkPayload = 4096

// ErrClosed is returned from Wrap/Unwrap once CloseOutbound has run and
// the close message has been exchanged.
var ErrClosed = errors.New("testengine: engine closed")

// Engine is the pass-through engine. Zero value is not usable; build one
// with New.
type Engine struct {
	initiator bool
	status    engine.HandshakeStatus
	step      int // 0: first message, 1: second message, 2: done
	closing   bool
	closed    bool
	// task, when non-nil, is the pending delegated task. The engine always
	// reports NEED_TASK once it has one; whether it runs automatically or
	// surfaces to the caller as NeedsTask is the channel facade's decision
	// (spec §3 runTasks), not the engine's.
	task func() error

	protocol string
}

// New builds a testengine.Engine. Every handshake schedules exactly one
// delegated task before finishing, exercising the task offload path
// (spec §8 scenario 5) regardless of the caller's runTasks setting. The
// reported protocol defaults to "TLSv1.2", below the renegotiation gate;
// use SetProtocol to exercise the TLS 1.3 refusal scenario instead.
func New(initiator bool) *Engine {
	return &Engine{initiator: initiator, status: engine.NotHandshaking, protocol: "TLSv1.2"}
}

// SetProtocol overrides the protocol name Protocol() reports once
// negotiated, for exercising the renegotiation version gate.
func (e *Engine) SetProtocol(p string) { e.protocol = p }

func (e *Engine) BeginHandshake() error {
	e.step = 0
	if e.initiator {
		e.status = engine.NeedWrap
	} else {
		e.status = engine.NeedUnwrap
	}
	return nil
}

func (e *Engine) HandshakeStatus() engine.HandshakeStatus { return e.status }

func (e *Engine) DelegatedTask() func() error {
	if e.task == nil {
		return nil
	}
	t := e.task
	return func() error {
		err := t()
		e.task = nil
		e.status = e.nextAfterTask()
		return err
	}
}

func (e *Engine) nextAfterTask() engine.HandshakeStatus {
	if e.step >= 2 {
		return engine.Finished
	}
	if e.initiator == (e.step%2 == 0) {
		return engine.NeedWrap
	}
	return engine.NeedUnwrap
}

func (e *Engine) CloseOutbound() { e.closing = true }

func (e *Engine) Protocol() string {
	if e.status == engine.Finished || e.status == engine.NotHandshaking {
		return e.protocol
	}
	return ""
}

// Wrap implements engine.Engine. During the handshake it writes a fixed
// marker frame; once finished it writes a length-framed copy of source.
func (e *Engine) Wrap(source buffers.Set, out *buffers.Holder) (engine.Result, error) {
	if e.closed {
		return engine.Result{}, ErrClosed
	}
	if e.handshaking() {
		return e.wrapHandshake(out)
	}
	if e.closing {
		return e.wrapClose(out)
	}
	return e.wrapData(source, out)
}

func (e *Engine) handshaking() bool {
	return e.status == engine.NeedWrap || e.status == engine.NeedUnwrap || e.status == engine.NeedTask
}

func (e *Engine) wrapHandshake(out *buffers.Holder) (engine.Result, error) {
	if e.status != engine.NeedWrap {
		return engine.Result{}, errors.New("testengine: wrap called out of turn")
	}
	frame := []byte{'H', 'S', byte(e.step)}
	if out.FreeSpace() < headerLen+len(frame) {
		return engine.Result{Status: engine.BufferOverflow, HandshakeStatus: e.status}, nil
	}
	writeFrame(out, frame)
	e.step++
	e.advanceHandshake()
	return engine.Result{Status: engine.OK, HandshakeStatus: e.status}, nil
}

func (e *Engine) advanceHandshake() {
	if e.step >= 2 {
		e.task = func() error { return nil }
		e.status = engine.NeedTask
		return
	}
	if e.initiator == (e.step%2 == 0) {
		e.status = engine.NeedWrap
	} else {
		e.status = engine.NeedUnwrap
	}
}

func (e *Engine) wrapClose(out *buffers.Holder) (engine.Result, error) {
	if out.FreeSpace() < headerLen+2 {
		return engine.Result{Status: engine.BufferOverflow, HandshakeStatus: e.status}, nil
	}
	writeFrame(out, []byte{'F', 'I'})
	e.closed = true
	return engine.Result{Status: engine.Closed, HandshakeStatus: e.status}, nil
}

func (e *Engine) wrapData(source buffers.Set, out *buffers.Holder) (engine.Result, error) {
	want := source.Remaining()
	if want > maxChunkPayload {
		want = maxChunkPayload
	}
	if out.FreeSpace() < headerLen+want {
		// Must not touch source: bytesConsumed==0 on overflow (spec §4.3.3).
		return engine.Result{Status: engine.BufferOverflow, HandshakeStatus: e.status}, nil
	}
	chunk := make([]byte, want)
	n := source.GetRemaining(chunk)
	writeFrame(out, chunk[:n])
	return engine.Result{Status: engine.OK, HandshakeStatus: e.status, BytesConsumed: n}, nil
}

// Unwrap implements engine.Engine.
func (e *Engine) Unwrap(in *buffers.Holder, dest buffers.Set) (engine.Result, error) {
	if e.closed {
		return engine.Result{}, ErrClosed
	}
	if in.Remaining() < headerLen {
		return engine.Result{Status: engine.BufferUnderflow, HandshakeStatus: e.status}, nil
	}
	n := int(binary.BigEndian.Uint32(in.Pending()[:headerLen]))
	if in.Remaining() < headerLen+n {
		return engine.Result{Status: engine.BufferUnderflow, HandshakeStatus: e.status}, nil
	}
	frame := in.Pending()[headerLen : headerLen+n]

	if e.handshaking() {
		return e.unwrapHandshake(in, frame, n)
	}
	if len(frame) == 2 && frame[0] == 'F' && frame[1] == 'I' {
		in.Consumed(headerLen + n)
		e.closed = true
		return engine.Result{Status: engine.Closed, HandshakeStatus: e.status}, nil
	}
	produced := dest.PutRemaining(frame)
	if produced < n {
		return engine.Result{Status: engine.BufferOverflow, HandshakeStatus: e.status}, nil
	}
	in.Consumed(headerLen + n)
	return engine.Result{Status: engine.OK, HandshakeStatus: e.status, BytesConsumed: headerLen + n, BytesProduced: produced}, nil
}

func (e *Engine) unwrapHandshake(in *buffers.Holder, frame []byte, n int) (engine.Result, error) {
	if e.status != engine.NeedUnwrap {
		return engine.Result{}, errors.New("testengine: unwrap called out of turn")
	}
	if len(frame) < 2 || frame[0] != 'H' || frame[1] != 'S' {
		return engine.Result{}, errors.New("testengine: malformed handshake frame")
	}
	in.Consumed(headerLen + n)
	e.step++
	e.advanceHandshake()
	return engine.Result{Status: engine.OK, HandshakeStatus: e.status}, nil
}

func writeFrame(out *buffers.Holder, payload []byte) {
	var hdr [headerLen]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	out.Produced(copy(out.Tail(), hdr[:]))
	out.Produced(copy(out.Tail(), payload))
}
