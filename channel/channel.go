// Package channel implements the TLS record-layer pump: it mediates
// between an opaque engine.Engine, a byte-oriented Transport, and a
// plaintext-facing Channel so callers can Read/Write plaintext without
// ever touching a TLS record directly (spec §1-§6).
package channel

import (
	"io"

	"github.com/google/uuid"

	"github.com/tlschannel/tlschannel/engine"
	"github.com/tlschannel/tlschannel/internal/buffers"
)

// Channel is the public facade: a plaintext io.ReadWriteCloser backed by
// a TLS-like engine and a raw Transport. The zero value is not usable;
// build one with New.
type Channel struct {
	s *session
}

// New builds a Channel. eng must not have had BeginHandshake called on
// it yet; the Channel drives the handshake itself, either on first
// Read/Write or in response to an explicit Handshake() call (spec §3's
// ExplicitHandshake).
func New(eng engine.Engine, transport Transport, opts Options) *Channel {
	return &Channel{s: newSession(eng, transport, opts)}
}

// ID returns a unique identifier for this channel instance, useful for
// correlating log lines across concurrent sessions.
func (c *Channel) ID() uuid.UUID { return c.s.id }

// Read implements io.Reader over the decrypted stream (spec §4.3.7). A
// 0-length p returns (0, nil) without touching the engine. A clean
// peer shutdown is reported as (0, io.EOF), matching io.Reader instead
// of the internal -1 sentinel the pump uses.
func (c *Channel) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := c.s.read(buffers.NewByteSliceSet(p, false))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadScatter implements the scatter-read form: dests[off:off+length]
// are filled in order, as if they were one contiguous buffer.
func (c *Channel) ReadScatter(dests [][]byte, off, length int) (int, error) {
	set := buffers.NewMultiSet(dests, off, length, false)
	n, err := c.s.read(set)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer over the decrypted stream (spec §4.3.8).
// Like the underlying Transport, a Write may return fewer bytes than
// len(p) with a nil error only via ErrNeedsWrite; a plain (n, nil)
// always means all n bytes given were consumed by the engine, though
// not necessarily flushed to the wire on return in every edge case
// covered by spec §9's non-blocking resumption contract.
func (c *Channel) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return c.s.write(buffers.NewByteSliceSet(p, false))
}

// WriteGather implements the gather-write form over srcs[off:off+length].
func (c *Channel) WriteGather(srcs [][]byte, off, length int) (int, error) {
	set := buffers.NewMultiSet(srcs, off, length, false)
	return c.s.write(set)
}

// Handshake drives the initial handshake to completion. It is a no-op
// if negotiation already succeeded; call Renegotiate to force a fresh
// one. Required before Read/Write when Options.ExplicitHandshake is
// set (spec §3, §4.3.6).
func (c *Channel) Handshake() error {
	return c.s.doHandshake(false)
}

// Renegotiate forces a new handshake over the existing transport. It
// fails for engines reporting a TLS 1.3-or-later protocol, where
// renegotiation isn't a meaningful operation (spec §4.3.9).
func (c *Channel) Renegotiate() error {
	return c.s.renegotiate()
}

// Shutdown sends this side's close_notify if it hasn't been sent yet,
// then always tries to read and discard bytes looking for the peer's
// close_notify, and reports whether the close is now bidirectionally
// complete (both sides' close_notify observed). A transport that has no
// bytes ready yet makes this a non-blocking no-op on the read side, so a
// caller may need to call Shutdown again after more transport data
// arrives (spec §4.3.10). Options.WaitForCloseConfirmation instead
// governs whether Close retries this a second time during its
// best-effort shutdown attempt.
func (c *Channel) Shutdown() (bool, error) {
	return c.s.shutdown()
}

// Close releases the channel's buffers and closes the underlying
// Transport if it implements io.Closer. Unlike every other method,
// Close never fails with ErrClosedChannel and is safe to call more
// than once (spec §7).
func (c *Channel) Close() error {
	return c.s.close()
}

// IsOpen reports whether the channel is still usable for Read/Write:
// not invalid, and close_notify hasn't been sent.
func (c *Channel) IsOpen() bool {
	return !c.s.isInvalid() && !c.s.shutdownSent.Load()
}

// ShutdownSent reports whether this side's close_notify has gone out.
func (c *Channel) ShutdownSent() bool { return c.s.shutdownSent.Load() }

// ShutdownReceived reports whether the peer's close_notify has been
// observed.
func (c *Channel) ShutdownReceived() bool { return c.s.shutdownReceived.Load() }

// Engine exposes the underlying engine.Engine, mainly so callers can
// inspect the negotiated protocol after a handshake completes.
func (c *Channel) Engine() engine.Engine { return c.s.engine }
