package channel

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tlschannel/tlschannel/engine"
	"github.com/tlschannel/tlschannel/internal/buffers"
	"github.com/tlschannel/tlschannel/internal/lock"
)

// DefaultInitialBufferSize is the starting capacity for each of the three
// buffers (spec §3).
const DefaultInitialBufferSize = 4096

// MaxTLSPacketSize is the per-buffer capacity ceiling: a 16 KiB TLS record
// plus ~1 KiB of framing/MAC overhead (spec §3).
const MaxTLSPacketSize = 17 * 1024

// Options configures a new Channel. Zero-value fields fall back to the
// defaults spec §3 describes. Options is deliberately plain-old-data so it
// can be populated straight from a decoded config.Config (see
// config.Config.ToChannelOptions).
type Options struct {
	// ExplicitHandshake, when true, makes Read/Write fail with
	// ErrNeedsHandshake until Handshake() completes, instead of driving
	// the handshake implicitly on first use (spec §3).
	ExplicitHandshake bool
	// RunTasks, when true, runs delegated tasks inline instead of
	// surfacing ErrNeedsTask to the caller (spec §3).
	RunTasks bool
	// WaitForCloseConfirmation, when true, makes Shutdown() block (across
	// repeated calls) until the peer's close_notify has been observed
	// (spec §3, §4.3.10).
	WaitForCloseConfirmation bool
	// InitialBufferSize overrides DefaultInitialBufferSize.
	InitialBufferSize int
	// MaxPacketSize overrides MaxTLSPacketSize.
	MaxPacketSize int
	// SessionInitCallback runs once, inside initLock, right after the
	// first successful handshake (spec §4.3.6, §9). A non-nil error
	// leaves Session.negotiated false and is returned wrapped in
	// *CallbackError.
	SessionInitCallback func() error
}

func (o Options) initialSize() int {
	if o.InitialBufferSize > 0 {
		return o.InitialBufferSize
	}
	return DefaultInitialBufferSize
}

func (o Options) maxSize() int {
	if o.MaxPacketSize > 0 {
		return o.MaxPacketSize
	}
	return MaxTLSPacketSize
}

// session holds the per-connection state described in spec §3: the sticky
// flags, the three buffers, the three locks, and the engine and transport
// collaborators. Flag fields are atomic.Bool so they are observable
// across the read/write/init goroutines spec §5 allows to run
// concurrently, without those goroutines needing to hold a lock just to
// read a flag.
type session struct {
	id uuid.UUID

	opts      Options
	engine    engine.Engine
	transport Transport

	initLock  lock.Lock
	readLock  lock.Lock
	writeLock lock.Lock

	inEncrypted  *buffers.Holder
	inPlain      *buffers.Holder
	outEncrypted *buffers.Holder

	negotiated       atomic.Bool
	isHandshaking    atomic.Bool
	invalid          atomic.Bool
	shutdownSent     atomic.Bool
	shutdownReceived atomic.Bool
}

func newSession(eng engine.Engine, transport Transport, opts Options) *session {
	encAlloc := buffers.NewPoolAllocator(opts.initialSize())
	plainAlloc := buffers.NewPoolAllocator(opts.initialSize())
	s := &session{
		id:        uuid.New(),
		opts:      opts,
		engine:    eng,
		transport: transport,
		initLock:  lock.NewMutex(),
		readLock:  lock.NewMutex(),
		writeLock: lock.NewMutex(),

		inEncrypted:  buffers.NewHolder(encAlloc, buffers.KindEncrypted, opts.initialSize(), opts.maxSize()),
		inPlain:      buffers.NewHolder(plainAlloc, buffers.KindPlain, opts.initialSize(), opts.maxSize()),
		outEncrypted: buffers.NewHolder(encAlloc, buffers.KindEncrypted, opts.initialSize(), opts.maxSize()),
	}
	return s
}

// markInvalid sets the sticky invalid flag. Once true, every subsequent
// operation other than Close fails with ErrClosedChannel (spec §3, §7).
func (s *session) markInvalid() { s.invalid.Store(true) }

func (s *session) isInvalid() bool { return s.invalid.Load() }
