package channel

import (
	"github.com/tlschannel/tlschannel/engine"
	"github.com/tlschannel/tlschannel/internal/buffers"
)

// This file is the pump: the wrap/unwrap state machine spec §4.3
// describes. Every exported entry point above it (Channel.Read,
// Channel.Write, Channel.Handshake, ...) acquires the appropriate lock(s)
// and then calls into these methods, which assume the lock is already
// held.

// unwrapLoop repeatedly calls the engine with inEncrypted as source and
// dest as the plaintext sink, per spec §4.3.2. dest is re-resolved from
// its Supplier on every iteration because a BUFFER_OVERFLOW may replace
// the backing Holder (inPlain) partway through.
func (s *session) unwrapLoop(dest buffers.Supplier, originalStatus engine.HandshakeStatus) (produced int, status engine.HandshakeStatus, closed bool, err error) {
	status = originalStatus
	for {
		target := dest()
		result, uerr := s.engine.Unwrap(s.inEncrypted, target)
		if uerr != nil {
			s.markInvalid()
			return 0, status, false, &TLSError{Err: uerr}
		}
		status = result.HandshakeStatus

		switch result.Status {
		case engine.BufferUnderflow:
			return 0, status, false, nil

		case engine.Closed:
			return result.BytesProduced, status, true, nil

		case engine.BufferOverflow:
			s.inPlain.Prepare()
			want := min(2*target.Remaining(), s.opts.maxSize())
			if want <= target.Remaining() {
				want = target.Remaining() + 1
			}
			if rerr := s.inPlain.Resize(want); rerr != nil {
				s.markInvalid()
				return 0, status, false, rerr
			}
			dest = buffers.HolderSupplier(s.inPlain)
			continue

		case engine.OK:
			if result.BytesProduced > 0 {
				return result.BytesProduced, status, false, nil
			}
			if status != originalStatus {
				return 0, status, false, nil
			}
			continue
		}
	}
}

// wrapLoop calls engine.Wrap repeatedly against source, per spec §4.3.3.
// BUFFER_UNDERFLOW from a wrap call is an engine contract violation, not a
// condition this loop handles.
func (s *session) wrapLoop(source buffers.Set) (consumed int, status engine.HandshakeStatus, err error) {
	for {
		result, werr := s.engine.Wrap(source, s.outEncrypted)
		if werr != nil {
			s.markInvalid()
			return consumed, status, &TLSError{Err: werr}
		}
		status = result.HandshakeStatus

		switch result.Status {
		case engine.BufferOverflow:
			if result.BytesConsumed != 0 {
				s.markInvalid()
				return consumed, status, errInvariant("wrap overflow consumed bytes")
			}
			if eerr := s.outEncrypted.Enlarge(); eerr != nil {
				s.markInvalid()
				return consumed, status, eerr
			}
			continue

		case engine.BufferUnderflow:
			s.markInvalid()
			return consumed, status, errInvariant("wrap reported BUFFER_UNDERFLOW")

		case engine.OK, engine.Closed:
			consumed += result.BytesConsumed
			return consumed, status, nil
		}
	}
}

// readAndUnwrap drives a transport read and an unwrap, alternating until
// progress, per spec §4.3.4.
func (s *session) readAndUnwrap(dest buffers.Supplier) (produced int, status engine.HandshakeStatus, closed bool, err error) {
	orig := s.engine.HandshakeStatus()
	s.inEncrypted.Prepare()
	defer s.inEncrypted.Release()

	for {
		produced, status, closed, err = s.unwrapLoop(dest, orig)
		if err != nil {
			return 0, status, false, err
		}
		if produced > 0 || status != orig || closed {
			if closed {
				s.shutdownReceived.Store(true)
			}
			return produced, status, closed, nil
		}

		if s.inEncrypted.FreeSpace() == 0 {
			if eerr := s.inEncrypted.Enlarge(); eerr != nil {
				s.markInvalid()
				return 0, status, false, eerr
			}
			continue
		}

		n, rerr := transportRead(s.transport, s.inEncrypted.Tail())
		if rerr != nil {
			return 0, status, false, rerr
		}
		s.inEncrypted.Produced(n)
	}
}

// wrapAndWrite prepares outEncrypted, then loops: flush whatever's
// pending, and if the user's source still has bytes, run one wrapLoop
// iteration to produce more, per spec §4.3.5. A zero-remaining source
// still enters the loop once, so pending outEncrypted bytes from a
// previous NeedsWrite get flushed (the non-blocking resumption contract).
func (s *session) wrapAndWrite(source buffers.Set) (consumed int, err error) {
	s.outEncrypted.Prepare()

	first := true
	for first || source.HasRemaining() {
		first = false

		if err := s.flushOutEncrypted(); err != nil {
			return consumed, err
		}
		if !source.HasRemaining() {
			return consumed, nil
		}

		n, _, werr := s.wrapLoop(source)
		consumed += n
		if werr != nil {
			return consumed, werr
		}
	}
	return consumed, s.flushOutEncrypted()
}

// flushOutEncrypted writes all pending outEncrypted bytes to the
// transport and resets the buffer to the empty, position-0 state spec §3
// requires between wraps.
func (s *session) flushOutEncrypted() error {
	if !s.outEncrypted.HasRemaining() {
		return nil
	}
	n, err := flush(s.transport, s.outEncrypted.Pending())
	s.outEncrypted.Consumed(n)
	if err != nil {
		return err
	}
	s.outEncrypted.Reset()
	return nil
}

type invariantError string

func (e invariantError) Error() string { return "channel: invariant violated: " + string(e) }
func errInvariant(msg string) error    { return invariantError(msg) }
