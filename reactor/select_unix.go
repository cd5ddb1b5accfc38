//go:build unix

package reactor

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/logiface"
)

// selectReactor is the "fragile" backend. It always watches every
// registered transport for read readiness (the reader list is implicit);
// only the writer list is maintained explicitly. Any mutation requires the
// full pause/handshake protocol, since select(2) takes a frozen snapshot of
// interest for the duration of the call.
type selectReactor struct {
	*base

	mu      sync.Mutex
	writers map[int]struct{}
}

// NewSelect constructs a Reactor backed by select(2).
func NewSelect(opts ...Option) (Reactor, error) {
	b, err := newBase(resolveOptions(opts))
	if err != nil {
		return nil, err
	}
	b.opts.debug("reactor: backend selected", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
		return bld.Str("backend", "select")
	})
	return &selectReactor{base: b, writers: make(map[int]struct{})}, nil
}

func (r *selectReactor) AddTransport(t Registrant) error {
	if err := r.register(t); err != nil {
		return err
	}
	if t.Writeable() || t.AwaitingConnect() {
		r.mu.Lock()
		r.writers[t.FD()] = struct{}{}
		r.mu.Unlock()
	}
	return nil
}

func (r *selectReactor) DelTransport(t Registrant) {
	r.unregister(t)
	r.mu.Lock()
	delete(r.writers, t.FD())
	r.mu.Unlock()
}

// AddReader/DelReader are no-ops: select watches every registered fd for
// read unconditionally.
func (r *selectReactor) AddReader(t Registrant) error { return nil }
func (r *selectReactor) DelReader(t Registrant) error { return nil }

func (r *selectReactor) AddWriter(t Registrant) error {
	r.mu.Lock()
	r.writers[t.FD()] = struct{}{}
	r.mu.Unlock()
	return nil
}

func (r *selectReactor) DelWriter(t Registrant) error {
	r.mu.Lock()
	delete(r.writers, t.FD())
	r.mu.Unlock()
	return nil
}

func (r *selectReactor) Poll(timeout time.Duration) error {
	if r.closed.Load() {
		return ErrReactorClosed
	}

	transports := r.snapshot()
	r.mu.Lock()
	writers := make(map[int]struct{}, len(r.writers))
	for fd := range r.writers {
		writers[fd] = struct{}{}
	}
	r.mu.Unlock()

	var readSet, writeSet, exceptSet unix.FdSet
	nfds := r.wake.receiverFD()
	fdSet(&readSet, r.wake.receiverFD())
	fdSet(&exceptSet, r.wake.receiverFD())

	for _, t := range transports {
		fd := t.FD()
		fdSet(&readSet, fd)
		fdSet(&exceptSet, fd)
		if fd > nfds {
			nfds = fd
		}
	}
	for fd := range writers {
		fdSet(&writeSet, fd)
		if fd > nfds {
			nfds = fd
		}
	}

	var tv *unix.Timeval
	if timeout >= 0 {
		t := unix.NsecToTimeval(timeout.Nanoseconds())
		tv = &t
	}

	_, err := unix.Select(nfds+1, &readSet, &writeSet, &exceptSet, tv)
	if err == unix.EINTR {
		r.opts.debug("reactor: select interrupted by signal, retrying", nil)
		return nil
	}
	if err != nil {
		return err
	}

	if fdIsSet(&readSet, r.wake.receiverFD()) {
		r.wake.drainReceiver(r.drainPending)
	}

	for _, t := range transports {
		fd := t.FD()
		var ev Events
		if fdIsSet(&readSet, fd) {
			ev |= EventRead
		}
		if fdIsSet(&writeSet, fd) {
			ev |= EventWrite
		}
		if fdIsSet(&exceptSet, fd) {
			ev |= EventExcept
		}
		if ev != 0 {
			t.Dispatch(ev)
		}
	}
	return nil
}

func (r *selectReactor) Run() error {
	for {
		if err := r.Poll(-1); err != nil {
			if err == ErrReactorClosed {
				return nil
			}
			return err
		}
	}
}

func (r *selectReactor) Close() error { return r.closeCommon() }

func (r *selectReactor) StartInterrupt(changeFlagsOnly bool) error {
	r.opts.debug("reactor: interrupt handshake starting", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
		return bld.Bool("change_flags_only", changeFlagsOnly)
	})
	return r.wake.StartHandshake()
}

func (r *selectReactor) EndInterrupt(changeFlagsOnly bool) error {
	r.opts.debug("reactor: interrupt handshake ending", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
		return bld.Bool("change_flags_only", changeFlagsOnly)
	})
	return r.wake.EndHandshake()
}
