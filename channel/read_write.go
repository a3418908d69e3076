package channel

import (
	"github.com/tlschannel/tlschannel/engine"
	"github.com/tlschannel/tlschannel/internal/buffers"
)

// read implements spec §4.3.7. dest must not be read-only and is not
// itself locked by the caller; read acquires readLock for the duration.
func (s *session) read(dest buffers.Set) (int, error) {
	if dest.IsReadOnly() {
		return 0, ErrReadOnlyDestination
	}
	if !dest.HasRemaining() {
		return 0, nil
	}

	if !s.opts.ExplicitHandshake {
		if err := s.doHandshake(false); err != nil {
			return 0, err
		}
	}

	s.readLock.Lock()
	defer s.readLock.Unlock()

	if s.isInvalid() || s.shutdownSent.Load() {
		return 0, ErrClosedChannel
	}

	status := s.engine.HandshakeStatus()
	if s.opts.ExplicitHandshake && status != engine.NotHandshaking && status != engine.Finished && !s.negotiated.Load() {
		return 0, ErrNeedsHandshake
	}

	for {
		if s.inPlain.HasRemaining() {
			n := s.drainInPlain(dest)
			return n, nil
		}
		if s.shutdownReceived.Load() {
			return -1, nil
		}

		switch status {
		case engine.NeedWrap, engine.NeedUnwrap:
			if err := s.doHandshake(false); err != nil {
				return 0, err
			}
			status = engine.NotHandshaking

		case engine.NotHandshaking, engine.Finished:
			produced, newStatus, closed, err := s.readAndUnwrap(buffers.Supplier(func() buffers.Set { return dest }))
			if err == errEOF {
				return -1, nil
			}
			if err != nil {
				if !s.isInvalid() {
					s.markInvalid()
				}
				return 0, err
			}
			if closed {
				return -1, nil
			}
			_ = produced
			status = newStatus

		case engine.NeedTask:
			if err := s.handleTask(); err != nil {
				return 0, err
			}
			status = s.engine.HandshakeStatus()
		}
	}
}

// drainInPlain transfers up to dest's remaining capacity from inPlain,
// compacting the remainder and zeroing trailing bytes per spec §4.1/§3.
func (s *session) drainInPlain(dest buffers.Set) int {
	n := dest.PutRemaining(s.inPlain.Pending())
	s.inPlain.Consumed(n)
	s.inPlain.Compact()
	s.inPlain.ZeroRemaining()
	return n
}

// write implements spec §4.3.8.
func (s *session) write(source buffers.Set) (int, error) {
	if !s.opts.ExplicitHandshake {
		if err := s.doHandshake(false); err != nil {
			return 0, err
		}
	}

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	if s.isInvalid() || s.shutdownSent.Load() {
		return 0, ErrClosedChannel
	}

	status := s.engine.HandshakeStatus()
	if s.opts.ExplicitHandshake && status != engine.NotHandshaking && status != engine.Finished && !s.negotiated.Load() {
		return 0, ErrNeedsHandshake
	}

	n, err := s.wrapAndWrite(source)
	if err != nil && err != ErrNeedsWrite {
		s.markInvalid()
	}
	return n, err
}
