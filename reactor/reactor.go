package reactor

import "time"

// Events is a bitmask of readiness conditions reported by a reactor backend
// for a single fd within one poll iteration.
type Events uint8

const (
	EventRead Events = 1 << iota
	EventWrite
	EventExcept
	EventHangup
)

func (e Events) Has(flag Events) bool { return e&flag != 0 }

// Registrant is the minimal contract a Reactor needs from whatever it
// polls. transport.SocketTransport is the production implementation; tests
// may supply their own.
type Registrant interface {
	// FD returns the underlying file descriptor. It must be stable for the
	// lifetime of the registration.
	FD() int
	// Readable/Writeable/AwaitingConnect report the transport's current
	// interest, consulted when (re)computing the backend's interest mask.
	Readable() bool
	Writeable() bool
	AwaitingConnect() bool
	// Dispatch delivers one poll iteration's readiness events, in the
	// canonical read/write/except/close order, exactly once per iteration.
	Dispatch(ev Events)
	// Cleanup is invoked exactly once, when the owning Reactor closes, for
	// every transport still registered at that point.
	Cleanup()
}

// Reactor is the event-demultiplexer abstraction. Select, Poll, EPoll, and
// KQueue are its concrete backends.
type Reactor interface {
	// AddTransport begins watching t's fd, with interest derived from t's
	// current flags. Returns ErrAlreadyRegistered if the fd is already
	// present.
	AddTransport(t Registrant) error
	// DelTransport stops watching t's fd. It is idempotent and never closes
	// the fd.
	DelTransport(t Registrant)

	AddReader(t Registrant) error
	DelReader(t Registrant) error
	AddWriter(t Registrant) error
	DelWriter(t Registrant) error

	// Poll blocks for up to timeout (negative means indefinitely) and
	// dispatches every ready event before returning. Returns
	// ErrReactorClosed if the reactor is closed. EINTR is swallowed.
	Poll(timeout time.Duration) error
	// Run loops Poll(-1) until ErrReactorClosed is observed.
	Run() error
	// Close marks the reactor closed, invokes Cleanup on every registered
	// transport exactly once, and releases backend resources. Idempotent.
	Close() error

	// StartInterrupt/EndInterrupt implement the cross-thread pause
	// protocol described in the package doc. changeFlagsOnly requests the
	// lighter path where the backend supports it (Poll, EPoll, KQueue);
	// Select always performs the full pause regardless of the flag.
	StartInterrupt(changeFlagsOnly bool) error
	EndInterrupt(changeFlagsOnly bool) error

	// CallSynchronized schedules fn to run on the reactor goroutine during
	// its next wake cycle.
	CallSynchronized(fn func()) error
}
