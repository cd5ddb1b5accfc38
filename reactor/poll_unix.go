//go:build unix

package reactor

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/logiface"
)

// pollReactor is the "robust" backend. It rebuilds its interest mask from
// each registered transport's live flags on every Poll call, so interest
// mutations never need to touch the backend directly -- the change-flags
// variant of the interrupt protocol is therefore a no-op here.
type pollReactor struct {
	*base
}

// NewPoll constructs a Reactor backed by poll(2).
func NewPoll(opts ...Option) (Reactor, error) {
	b, err := newBase(resolveOptions(opts))
	if err != nil {
		return nil, err
	}
	b.opts.debug("reactor: backend selected", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
		return bld.Str("backend", "poll")
	})
	return &pollReactor{base: b}, nil
}

func (r *pollReactor) AddTransport(t Registrant) error { return r.register(t) }
func (r *pollReactor) DelTransport(t Registrant)       { r.unregister(t) }

func (r *pollReactor) AddReader(t Registrant) error { return nil }
func (r *pollReactor) DelReader(t Registrant) error { return nil }
func (r *pollReactor) AddWriter(t Registrant) error { return nil }
func (r *pollReactor) DelWriter(t Registrant) error { return nil }

func pollCreateFlags(t Registrant) int16 {
	flags := int16(unix.POLLERR | unix.POLLHUP | unix.POLLNVAL)
	if t.Readable() {
		flags |= unix.POLLIN | unix.POLLPRI
	}
	if t.Writeable() || t.AwaitingConnect() {
		flags |= unix.POLLOUT
	}
	return flags
}

func (r *pollReactor) Poll(timeout time.Duration) error {
	if r.closed.Load() {
		return ErrReactorClosed
	}

	transports := r.snapshot()
	fds := make([]unix.PollFd, 0, len(transports)+1)
	fds = append(fds, unix.PollFd{Fd: int32(r.wake.receiverFD()), Events: unix.POLLIN})
	for _, t := range transports {
		fds = append(fds, unix.PollFd{Fd: int32(t.FD()), Events: pollCreateFlags(t)})
	}

	timeoutMs := -1
	if timeout >= 0 {
		timeoutMs = int(timeout.Milliseconds())
	}

	_, err := unix.Poll(fds, timeoutMs)
	if err == unix.EINTR {
		r.opts.debug("reactor: poll interrupted by signal, retrying", nil)
		return nil
	}
	if err != nil {
		return err
	}

	if fds[0].Revents != 0 {
		r.wake.drainReceiver(r.drainPending)
	}

	for _, pfd := range fds[1:] {
		if pfd.Revents == 0 {
			continue
		}
		t, ok := r.lookup(int(pfd.Fd))
		if !ok {
			continue
		}
		var ev Events
		revents := int16(pfd.Revents)
		if revents&(unix.POLLIN|unix.POLLPRI) != 0 {
			ev |= EventRead
		}
		if revents&unix.POLLPRI != 0 {
			ev |= EventExcept
		}
		if revents&unix.POLLOUT != 0 {
			ev |= EventWrite
		}
		if revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			ev |= EventHangup
		}
		t.Dispatch(ev)
	}
	return nil
}

func (r *pollReactor) Run() error {
	for {
		if err := r.Poll(-1); err != nil {
			if err == ErrReactorClosed {
				return nil
			}
			return err
		}
	}
}

func (r *pollReactor) Close() error { return r.closeCommon() }

// StartInterrupt/EndInterrupt: the change-flags-only path is a no-op since
// Poll recomputes interest from live transport flags every call; a full
// interrupt still pauses the reactor for batched mutation.
func (r *pollReactor) StartInterrupt(changeFlagsOnly bool) error {
	if changeFlagsOnly {
		return nil
	}
	r.opts.debug("reactor: interrupt handshake starting", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
		return bld.Bool("change_flags_only", changeFlagsOnly)
	})
	return r.wake.StartHandshake()
}

func (r *pollReactor) EndInterrupt(changeFlagsOnly bool) error {
	if changeFlagsOnly {
		return nil
	}
	r.opts.debug("reactor: interrupt handshake ending", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
		return bld.Bool("change_flags_only", changeFlagsOnly)
	})
	return r.wake.EndHandshake()
}
