package channel

import (
	"strings"

	"github.com/tlschannel/tlschannel/engine"
	"github.com/tlschannel/tlschannel/internal/buffers"
)

// doHandshake drives (or re-drives, when force is true) the handshake, per
// spec §4.3.6. It takes initLock, then readLock and writeLock in that
// order (spec §5's fixed acquisition order), so it's safe to call
// concurrently with Read/Write on other goroutines — those simply block
// on their own lock until the handshake step finishes.
func (s *session) doHandshake(force bool) error {
	if !force && s.negotiated.Load() {
		return nil
	}

	s.initLock.Lock()
	defer s.initLock.Unlock()

	if s.isInvalid() || s.shutdownSent.Load() {
		return ErrClosedChannel
	}

	s.readLock.Lock()
	defer s.readLock.Unlock()
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	s.outEncrypted.Prepare()
	if _, err := s.doWorkLoop(buffers.HolderSupplier(s.inPlain), force); err != nil {
		return err
	}

	if cb := s.opts.SessionInitCallback; cb != nil {
		if err := cb(); err != nil {
			// Per spec §9: negotiated is only recorded on success, so a
			// throwing callback leaves the session usable only via
			// another Handshake() call.
			return &CallbackError{Err: err}
		}
	}
	s.negotiated.Store(true)
	return nil
}

// doWorkLoop is the handshake pump loop: on first entry it kicks off
// (or restarts) the engine's handshake, then repeatedly steps it until
// maybeHandshakeStep reports completion, per spec §4.3.6.
func (s *session) doWorkLoop(dest buffers.Supplier, force bool) (int, error) {
	// isHandshaking, not negotiated, gates the (re)start: a retry after
	// NeedsTaskError/ErrNeedsRead/ErrNeedsWrite must resume the engine
	// where it left off, not call BeginHandshake again, even though
	// negotiated is still false on every one of those retries.
	if force || !s.isHandshaking.Load() {
		if err := s.engine.BeginHandshake(); err != nil {
			return 0, err
		}
		if !s.inPlain.NullOrEmpty() {
			return 0, errInvariant("inPlain not empty at handshake start")
		}
		// Opportunistic flush of any outEncrypted bytes left over from a
		// prior step that raised ErrNeedsWrite (spec §9).
		if err := s.flushOutEncrypted(); err != nil {
			return 0, err
		}
		s.isHandshaking.Store(true)
	}

	for {
		count, err := s.maybeHandshakeStep(dest)
		if err != nil {
			return 0, err
		}
		if count != continueSentinel {
			s.isHandshaking.Store(false)
			return count, nil
		}
	}
}

// continueSentinel is maybeHandshakeStep's "keep looping" return value. It
// is negative and distinct from every real byte count (which is >= 0), so
// callers can distinguish "done, possibly with 0 bytes" from "not done".
const continueSentinel = -2

// maybeHandshakeStep runs a single handshake step and decides whether the
// handshake is finished, per spec §4.3.6.
func (s *session) maybeHandshakeStep(dest buffers.Supplier) (int, error) {
	status := s.engine.HandshakeStatus()
	if status == engine.Finished || status == engine.NotHandshaking {
		return 0, nil
	}

	newStatus, produced, closed, err := s.handshakeStep(dest, status)
	if err != nil {
		return 0, err
	}
	if closed {
		return 0, ErrClosedChannel
	}
	if newStatus == engine.NeedUnwrap && produced > 0 {
		// A concurrent Read is waiting on this plaintext; hand it back
		// instead of looping again.
		return produced, nil
	}
	return continueSentinel, nil
}

// handshakeStep runs exactly one engine step for the given status, per the
// dispatch table in spec §4.3.6.
func (s *session) handshakeStep(dest buffers.Supplier, status engine.HandshakeStatus) (newStatus engine.HandshakeStatus, produced int, closed bool, err error) {
	switch status {
	case engine.NeedWrap:
		if s.outEncrypted.HasRemaining() {
			return status, 0, false, errInvariant("outEncrypted not empty before handshake wrap")
		}
		dummy := buffers.NewByteSliceSet(nil, false)
		_, newStatus, werr := s.wrapLoop(dummy)
		if werr != nil {
			return status, 0, false, werr
		}
		if ferr := s.flushOutEncrypted(); ferr != nil {
			return status, 0, false, ferr
		}
		return newStatus, 0, false, nil

	case engine.NeedUnwrap:
		produced, newStatus, closed, err = s.readAndUnwrap(dest)
		return newStatus, produced, closed, err

	case engine.NeedTask:
		if terr := s.handleTask(); terr != nil {
			return status, 0, false, terr
		}
		return s.engine.HandshakeStatus(), 0, false, nil

	case engine.Finished, engine.NotHandshaking:
		return status, 0, false, nil

	default:
		return status, 0, false, errInvariant("unknown handshake status")
	}
}

// handleTask runs (or surfaces) the engine's next delegated task, per
// spec §3's runTasks flag and §9's "task runnable escape".
func (s *session) handleTask() error {
	task := s.engine.DelegatedTask()
	if task == nil {
		return nil
	}
	if !s.opts.RunTasks {
		return &NeedsTaskError{Task: task}
	}
	if err := task(); err != nil {
		s.markInvalid()
		return &TLSError{Err: err}
	}
	return nil
}

// renegotiationGateVersion is the lowest protocol name renegotiation
// refuses at, compared lexicographically per spec §4.3.9 / §9 (works for
// "TLSv1", "TLSv1.1", ..., "TLSv1.4"; documented as fragile but
// intentional).
const renegotiationGateVersion = "TLSv1.3"

// renegotiate refuses on TLS 1.3+ sessions (where renegotiation isn't
// meaningful) and otherwise forces a fresh handshake, per spec §4.3.9.
func (s *session) renegotiate() error {
	if proto := s.engine.Protocol(); proto != "" && strings.Compare(proto, renegotiationGateVersion) >= 0 {
		return &TLSError{Err: errRenegotiationUnsupported}
	}
	return s.doHandshake(true)
}

var errRenegotiationUnsupported = renegotiationError{}

type renegotiationError struct{}

func (renegotiationError) Error() string { return "renegotiation not supported" }
