// Package lock provides the mutual-exclusion abstraction the pump uses for
// its three independent critical sections (init, read, write), including a
// no-op variant for single-threaded embedding.
package lock

import "sync"

// Lock is a reentrant-from-the-caller's-perspective mutex with a
// non-blocking TryLock, matching the three locks spec.md §5 requires
// (initLock, readLock, writeLock). Callers are expected to acquire these
// in the fixed order initLock -> readLock -> writeLock and never reverse
// it; Lock itself does not enforce ordering.
type Lock interface {
	Lock()
	Unlock()
	// TryLock attempts to acquire without blocking, reporting success.
	// Used by Close's best-effort shutdown (spec §4.3.10 tryShutdown).
	TryLock() bool
}

// Mutex is the default Lock, backed by sync.Mutex.
type Mutex struct {
	mu sync.Mutex
}

// NewMutex returns a ready-to-use Mutex lock.
func NewMutex() *Mutex { return &Mutex{} }

func (m *Mutex) Lock()         { m.mu.Lock() }
func (m *Mutex) Unlock()       { m.mu.Unlock() }
func (m *Mutex) TryLock() bool { return m.mu.TryLock() }

// NoOp is a Lock that never blocks and never contends, for single-threaded
// embeddings of the channel where the caller guarantees serialized access
// itself.
type NoOp struct{}

func (NoOp) Lock()         {}
func (NoOp) Unlock()       {}
func (NoOp) TryLock() bool { return true }
