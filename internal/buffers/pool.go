package buffers

import "sync"

// Allocator supplies and recycles raw byte buffers of a requested capacity.
// It is the out-of-core "buffer-pool allocator" collaborator spec.md keeps
// external to the pump.
type Allocator interface {
	// Acquire returns a buffer of at least n bytes, zero-length ready for
	// append (len==0, cap>=n is NOT guaranteed; callers use make semantics
	// via the returned slice's cap).
	Acquire(n int) []byte
	// Release returns buf to the pool for reuse.
	Release(buf []byte)
}

// PoolAllocator is a sync.Pool-backed Allocator. One instance should back
// all of a session's encrypted buffers, a separate instance its plain
// buffers, matching the teacher's one-pool-per-concern convention.
type PoolAllocator struct {
	pool sync.Pool
}

// NewPoolAllocator builds an allocator whose pool seeds buffers of size.
func NewPoolAllocator(size int) *PoolAllocator {
	a := &PoolAllocator{}
	a.pool.New = func() any {
		b := make([]byte, size)
		return &b
	}
	return a
}

// Acquire implements Allocator.
func (a *PoolAllocator) Acquire(n int) []byte {
	bp := a.pool.Get().(*[]byte)
	b := *bp
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}

// Release implements Allocator.
func (a *PoolAllocator) Release(buf []byte) {
	a.pool.Put(&buf)
}

// directAllocator allocates fresh slices every time and discards on
// release; used where pooling isn't wanted (tests, one-shot connections).
type directAllocator struct{}

// NewDirectAllocator returns an Allocator that never pools.
func NewDirectAllocator() Allocator { return directAllocator{} }

func (directAllocator) Acquire(n int) []byte { return make([]byte, n) }
func (directAllocator) Release([]byte)       {}
