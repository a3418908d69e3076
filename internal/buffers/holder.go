// Package buffers implements the growable byte buffers the pump shuffles
// data through (inEncrypted, inPlain, outEncrypted) and the pool allocators
// that back them.
package buffers

import (
	"errors"
)

// ErrBufferOverflow is raised when a buffer needs to grow past its ceiling.
// The pump treats this as an engine-internal error and marks the session
// invalid.
var ErrBufferOverflow = errors.New("buffers: cannot enlarge buffer beyond ceiling")

// Kind distinguishes plain (decrypted) buffers, which must be zeroed before
// release to a pool, from non-plain (encrypted) buffers, which need not be.
type Kind int

const (
	// KindEncrypted marks a buffer holding TLS records; never zeroed.
	KindEncrypted Kind = iota
	// KindPlain marks a buffer holding decrypted application data; zeroed
	// on release.
	KindPlain
)

// Holder owns one growable byte buffer with a position/limit/capacity
// cursor in the style of a java.nio.ByteBuffer, plus a capacity ceiling.
// It is not safe for concurrent use; callers serialize access via the
// governing lock described in spec §5.
type Holder struct {
	alloc    Allocator
	kind     Kind
	initial  int
	ceiling  int
	buf      []byte // len(buf) == capacity; buf[:pos] is consumed, buf[pos:lim] pending
	pos      int
	lim      int
	disposed bool
}

// NewHolder builds a buffer holder that lazily allocates through alloc.
func NewHolder(alloc Allocator, kind Kind, initial, ceiling int) *Holder {
	return &Holder{alloc: alloc, kind: kind, initial: initial, ceiling: ceiling}
}

// Prepare allocates the backing array if absent.
func (h *Holder) Prepare() {
	if h.buf != nil || h.disposed {
		return
	}
	h.buf = h.alloc.Acquire(h.initial)
	h.pos = 0
	h.lim = 0
}

// NullOrEmpty reports whether the buffer has never been prepared, has been
// disposed, or is prepared but currently empty (no pending bytes).
func (h *Holder) NullOrEmpty() bool {
	return h.buf == nil || h.lim == h.pos
}

// Release returns the buffer to its pool if it is empty, and reports
// whether it was in fact released.
func (h *Holder) Release() bool {
	if h.buf == nil || h.disposed {
		return false
	}
	if h.lim != h.pos {
		return false
	}
	if h.kind == KindPlain {
		h.zeroAll()
	}
	h.alloc.Release(h.buf)
	h.buf = nil
	h.pos, h.lim = 0, 0
	return true
}

// Dispose drops the buffer unconditionally, without returning it to a pool.
// Used on Close, where a secure-drop path makes the zero-before-release
// contract unnecessary.
func (h *Holder) Dispose() {
	h.buf = nil
	h.pos, h.lim = 0, 0
	h.disposed = true
}

// Enlarge grows the buffer geometrically toward the ceiling. It fails with
// ErrBufferOverflow if the buffer is already at the ceiling: there is
// nowhere left to grow, regardless of how much more room is wanted.
func (h *Holder) Enlarge() error {
	h.Prepare()
	if h.cap() >= h.ceiling {
		return ErrBufferOverflow
	}
	return h.Resize(h.cap() * 2)
}

// Resize grows the buffer to at least n bytes, capped at the ceiling. A
// no-op if the buffer already holds at least n bytes; fails with
// ErrBufferOverflow only if more room is genuinely needed and the ceiling
// has already been reached.
func (h *Holder) Resize(n int) error {
	h.Prepare()
	if n > h.ceiling {
		n = h.ceiling
	}
	if h.cap() >= n {
		return nil
	}
	if h.cap() >= h.ceiling {
		return ErrBufferOverflow
	}
	grown := make([]byte, n)
	copy(grown, h.buf[:h.lim])
	h.buf = grown
	return nil
}

// ZeroRemaining wipes bytes past the position, for plain buffers about to
// be handed back empty-but-not-yet-released.
func (h *Holder) ZeroRemaining() {
	if h.kind != KindPlain || h.buf == nil {
		return
	}
	for i := h.pos; i < len(h.buf); i++ {
		h.buf[i] = 0
	}
}

func (h *Holder) zeroAll() {
	for i := range h.buf {
		h.buf[i] = 0
	}
}

func (h *Holder) cap() int {
	if h.buf == nil {
		return h.initial
	}
	return len(h.buf)
}

// Cap returns the current backing-array capacity.
func (h *Holder) Cap() int { return h.cap() }

// Ceiling returns the configured capacity ceiling.
func (h *Holder) Ceiling() int { return h.ceiling }

// Remaining returns lim-pos, the number of pending unread bytes.
func (h *Holder) Remaining() int { return h.lim - h.pos }

// HasRemaining reports whether Remaining() > 0.
func (h *Holder) HasRemaining() bool { return h.lim > h.pos }

// FreeSpace returns the writable room between lim and the backing array's
// end — how much more can be appended before the buffer must grow.
func (h *Holder) FreeSpace() int {
	if h.buf == nil {
		return 0
	}
	return len(h.buf) - h.lim
}

// Bytes exposes the full backing array for engine calls that need a slice
// to write into or read from directly (position/limit aware callers use
// Pending/Tail instead).
func (h *Holder) Bytes() []byte { return h.buf }

// Pending returns the slice of unread bytes (position..limit).
func (h *Holder) Pending() []byte {
	if h.buf == nil {
		return nil
	}
	return h.buf[h.pos:h.lim]
}

// Tail returns the writable slice past the limit, for transport reads and
// engine writes that append data.
func (h *Holder) Tail() []byte {
	if h.buf == nil {
		return nil
	}
	return h.buf[h.lim:]
}

// Produced records that n bytes were appended past the limit (e.g. by a
// transport read or an engine wrap/unwrap call writing into Tail()).
func (h *Holder) Produced(n int) { h.lim += n }

// Consumed advances the position past n already-read bytes.
func (h *Holder) Consumed(n int) { h.pos += n }

// Compact moves any pending bytes to the front of the backing array and
// resets position to 0, limit to the pending count — freeing room at the
// tail without losing unread data.
func (h *Holder) Compact() {
	if h.buf == nil {
		return
	}
	n := copy(h.buf, h.buf[h.pos:h.lim])
	h.pos = 0
	h.lim = n
}

// Reset clears position and limit to 0 without touching the backing array,
// for reuse once its pending bytes have all been consumed by the caller.
func (h *Holder) Reset() {
	h.pos, h.lim = 0, 0
}
