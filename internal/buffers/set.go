package buffers

// Set is the uniform view the pump hands to the engine as the plaintext
// side of a wrap or unwrap call. It abstracts over a single user buffer,
// a gather/scatter array of buffers, and a session-owned Holder, so the
// pump never needs to special-case which one it's driving.
type Set interface {
	// Remaining reports how many bytes are available (for a source) or how
	// much room is left (for a destination).
	Remaining() int
	// HasRemaining is Remaining() > 0.
	HasRemaining() bool
	// IsReadOnly reports whether PutRemaining would fail; Read rejects a
	// read-only destination up front (spec §7 IllegalArgument).
	IsReadOnly() bool
	// PutRemaining copies as much of src as fits, advancing the set's
	// cursor, and returns the number of bytes copied. Used when this set
	// is an unwrap destination.
	PutRemaining(src []byte) int
	// GetRemaining copies as much pending data as fits into dst, advancing
	// the set's cursor, and returns the number of bytes copied. Used when
	// this set is a wrap source.
	GetRemaining(dst []byte) int
}

// Supplier resolves its Set lazily on every call. inPlain may be
// reallocated mid-unwrap-loop by ensureInPlainCapacity (spec §4.2, §9); a
// snapshot Set taken before the reallocation would silently write into a
// buffer nobody reads from again. A Supplier closes over the *Holder
// itself rather than a point-in-time view of it.
type Supplier func() Set

// ByteSliceSet is a single flat user buffer (the dest of Read, the src of
// Write), with its own cursor so partial fills/drains are observable
// across repeated PutRemaining/GetRemaining calls within one pump loop.
type ByteSliceSet struct {
	buf      []byte
	pos      int
	readOnly bool
}

// NewByteSliceSet wraps buf for use as a wrap source or unwrap destination.
// readOnly should be true when wrapping a caller-supplied read-only buffer
// destined to be an unwrap destination (PutRemaining always fails on it).
func NewByteSliceSet(buf []byte, readOnly bool) *ByteSliceSet {
	return &ByteSliceSet{buf: buf, readOnly: readOnly}
}

func (s *ByteSliceSet) Remaining() int     { return len(s.buf) - s.pos }
func (s *ByteSliceSet) HasRemaining() bool { return s.pos < len(s.buf) }
func (s *ByteSliceSet) IsReadOnly() bool   { return s.readOnly }

func (s *ByteSliceSet) PutRemaining(src []byte) int {
	if s.readOnly {
		return 0
	}
	n := copy(s.buf[s.pos:], src)
	s.pos += n
	return n
}

func (s *ByteSliceSet) GetRemaining(dst []byte) int {
	n := copy(dst, s.buf[s.pos:])
	s.pos += n
	return n
}

// Consumed reports how many bytes have been copied out of or into the set
// so far.
func (s *ByteSliceSet) Consumed() int { return s.pos }

// MultiSet is the gather/scatter view over an array of buffer slices,
// backing write(srcs, off, len) / read(dests, off, len).
type MultiSet struct {
	bufs []ByteSliceSet
	idx  int // index of the first buffer with remaining room
}

// NewMultiSet builds a scatter/gather view over bufs[off:off+length].
func NewMultiSet(bufs [][]byte, off, length int, readOnly bool) *MultiSet {
	m := &MultiSet{bufs: make([]ByteSliceSet, length)}
	for i := 0; i < length; i++ {
		m.bufs[i] = ByteSliceSet{buf: bufs[off+i], readOnly: readOnly}
	}
	m.advance()
	return m
}

func (m *MultiSet) advance() {
	for m.idx < len(m.bufs) && !m.bufs[m.idx].HasRemaining() {
		m.idx++
	}
}

func (m *MultiSet) Remaining() int {
	total := 0
	for i := m.idx; i < len(m.bufs); i++ {
		total += m.bufs[i].Remaining()
	}
	return total
}

func (m *MultiSet) HasRemaining() bool {
	m.advance()
	return m.idx < len(m.bufs)
}

func (m *MultiSet) IsReadOnly() bool {
	if len(m.bufs) == 0 {
		return false
	}
	return m.bufs[0].readOnly
}

func (m *MultiSet) PutRemaining(src []byte) int {
	total := 0
	for len(src) > 0 && m.HasRemaining() {
		n := m.bufs[m.idx].PutRemaining(src)
		total += n
		src = src[n:]
		m.advance()
	}
	return total
}

func (m *MultiSet) GetRemaining(dst []byte) int {
	total := 0
	for len(dst) > 0 && m.HasRemaining() {
		n := m.bufs[m.idx].GetRemaining(dst)
		total += n
		dst = dst[n:]
		m.advance()
	}
	return total
}

// HolderSet adapts a session-owned Holder to the Set interface, so the
// engine can wrap from / unwrap into inPlain/outEncrypted the same way it
// would a user buffer.
type HolderSet struct {
	h *Holder
}

// NewHolderSet wraps h.
func NewHolderSet(h *Holder) *HolderSet { return &HolderSet{h: h} }

func (s *HolderSet) Remaining() int     { return s.h.FreeSpace() }
func (s *HolderSet) HasRemaining() bool { return s.h.FreeSpace() > 0 }
func (s *HolderSet) IsReadOnly() bool   { return false }

func (s *HolderSet) PutRemaining(src []byte) int {
	n := copy(s.h.Tail(), src)
	s.h.Produced(n)
	return n
}

func (s *HolderSet) GetRemaining(dst []byte) int {
	n := copy(dst, s.h.Pending())
	s.h.Consumed(n)
	return n
}

// HolderSupplier returns a Supplier that always resolves to the live
// Holder, resilient to the Holder's backing array being reallocated by
// Enlarge/Resize between calls.
func HolderSupplier(h *Holder) Supplier {
	return func() Set { return NewHolderSet(h) }
}
