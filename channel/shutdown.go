package channel

import (
	"io"

	"github.com/tlschannel/tlschannel/internal/buffers"
)

// shutdown implements spec §4.3.10. It takes readLock then writeLock for
// its whole duration (not initLock), so it's safe to call concurrently
// with a handshake or with Close's best-effort attempt.
func (s *session) shutdown() (bool, error) {
	s.readLock.Lock()
	defer s.readLock.Unlock()
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	return s.shutdownLocked()
}

// shutdownLocked is shutdown()'s body, factored out so Close's tryShutdown
// can run it while already holding both locks via TryLock, without
// re-entering a non-reentrant lock.
func (s *session) shutdownLocked() (bool, error) {
	if s.isInvalid() {
		return false, ErrClosedChannel
	}

	if !s.shutdownSent.Load() {
		if err := s.doSendClose(); err != nil {
			return false, err
		}
	}

	// This branch runs whenever our close_notify is out and the peer's
	// hasn't been observed yet, regardless of WaitForCloseConfirmation:
	// that flag only gates whether Close retries shutdown() a second
	// time, not whether shutdown() itself ever drains the peer's close.
	if s.shutdownSent.Load() && !s.shutdownReceived.Load() {
		if err := s.doDrainPeerClose(); err != nil {
			return false, err
		}
	}

	done := s.shutdownSent.Load() && s.shutdownReceived.Load()
	if done {
		s.releaseBuffers()
	}
	return done, nil
}

// doSendClose runs the engine's close handshake and flushes it to the
// transport, exactly once. Assumes writeLock is already held.
func (s *session) doSendClose() error {
	s.engine.CloseOutbound()
	s.outEncrypted.Prepare()
	dummy := buffers.NewByteSliceSet(nil, false)
	if _, _, err := s.wrapLoop(dummy); err != nil {
		return err
	}
	if err := s.flushOutEncrypted(); err != nil {
		return err
	}
	s.shutdownSent.Store(true)
	return nil
}

// doDrainPeerClose reads and discards transport bytes looking for the
// peer's close_notify, per spec §4.3.10's "readAndUnwrap(inPlainSupplier);
// assert shutdownReceived". A raw transport EOF without having observed
// a proper close is *not* a clean shutdown and is raised as
// ErrClosedChannel; a non-blocking ErrNeedsRead just means no bytes are
// available yet and is not an error here. Assumes readLock is already
// held.
func (s *session) doDrainPeerClose() error {
	discard := make([]byte, s.opts.initialSize())
	for !s.shutdownReceived.Load() {
		dest := buffers.NewByteSliceSet(discard, false)
		supplier := buffers.Supplier(func() buffers.Set { return dest })
		_, _, closed, err := s.readAndUnwrap(supplier)
		if err == errEOF {
			return ErrClosedChannel
		}
		if err == ErrNeedsRead {
			return nil
		}
		if err != nil {
			return err
		}
		if closed {
			s.shutdownReceived.Store(true)
		}
	}
	return nil
}

// releaseBuffers returns the three buffers to their pools once both
// sides' close_notify have been observed, per spec §4.3.10's "Free
// buffers" step. Unlike close()'s Dispose, Release only succeeds on an
// already-empty buffer and leaves the Holder reusable.
func (s *session) releaseBuffers() {
	s.inEncrypted.Release()
	s.inPlain.Release()
	s.outEncrypted.Release()
}

// close implements spec §4.3.10's tryShutdown discipline: a best-effort,
// non-blocking shutdown attempt (bailing out rather than contending with
// an in-flight Read/Write), then closing the transport unconditionally,
// then a blocking acquire of both locks to free the buffers for good.
// Unlike shutdown(), close() never fails: shutdown errors are best-effort
// and swallowed.
func (s *session) close() error {
	if s.readLock.TryLock() {
		if s.writeLock.TryLock() {
			done, _ := s.shutdownLocked()
			if !done && s.opts.WaitForCloseConfirmation {
				_, _ = s.shutdownLocked()
			}
			s.writeLock.Unlock()
		}
		s.readLock.Unlock()
	}

	s.invalid.Store(true)

	var transportErr error
	if c, ok := s.transport.(io.Closer); ok {
		transportErr = c.Close()
	}

	s.readLock.Lock()
	s.writeLock.Lock()
	s.inEncrypted.Dispose()
	s.inPlain.Dispose()
	s.outEncrypted.Dispose()
	s.writeLock.Unlock()
	s.readLock.Unlock()

	return transportErr
}
