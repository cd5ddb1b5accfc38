//go:build linux

package reactor

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/logiface"
)

// epollReactor is the "rock-solid" Linux backend. Unlike Select/Poll it
// keeps a persistent kernel-side interest list, so interest mutations are
// always applied immediately via epoll_ctl(EPOLL_CTL_MOD) -- both flavors
// of the interrupt protocol are no-ops here.
type epollReactor struct {
	*base

	epfd int

	mu       sync.Mutex
	interest map[int]uint32
}

// NewEPoll constructs a Reactor backed by epoll(7).
func NewEPoll(opts ...Option) (Reactor, error) {
	b, err := newBase(resolveOptions(opts))
	if err != nil {
		return nil, err
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		_ = b.wake.Close()
		return nil, err
	}
	r := &epollReactor{base: b, epfd: epfd, interest: make(map[int]uint32)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, b.wake.receiverFD(), &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(b.wake.receiverFD()),
	}); err != nil {
		_ = unix.Close(epfd)
		_ = b.wake.Close()
		return nil, err
	}
	b.opts.debug("reactor: backend selected", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
		return bld.Str("backend", "epoll")
	})
	return r, nil
}

func epollBaseEvents(t Registrant) uint32 {
	var events uint32 = unix.EPOLLRDHUP
	if t.Readable() {
		events |= unix.EPOLLIN
	}
	if t.Writeable() || t.AwaitingConnect() {
		events |= unix.EPOLLOUT
	}
	return events
}

func (r *epollReactor) ctl(op int, fd int, events uint32) error {
	return unix.EpollCtl(r.epfd, op, fd, &unix.EpollEvent{Events: events, Fd: int32(fd)})
}

func (r *epollReactor) AddTransport(t Registrant) error {
	if err := r.register(t); err != nil {
		return err
	}
	events := epollBaseEvents(t)
	r.mu.Lock()
	r.interest[t.FD()] = events
	r.mu.Unlock()
	return r.ctl(unix.EPOLL_CTL_ADD, t.FD(), events)
}

func (r *epollReactor) DelTransport(t Registrant) {
	r.unregister(t)
	r.mu.Lock()
	delete(r.interest, t.FD())
	r.mu.Unlock()
	_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, t.FD(), nil)
}

func (r *epollReactor) modifyInterest(t Registrant, set, clear uint32) error {
	fd := t.FD()
	r.mu.Lock()
	events := r.interest[fd]
	events |= set
	events &^= clear
	r.interest[fd] = events
	r.mu.Unlock()
	return r.ctl(unix.EPOLL_CTL_MOD, fd, events)
}

func (r *epollReactor) AddReader(t Registrant) error { return r.modifyInterest(t, unix.EPOLLIN, 0) }
func (r *epollReactor) DelReader(t Registrant) error { return r.modifyInterest(t, 0, unix.EPOLLIN) }
func (r *epollReactor) AddWriter(t Registrant) error { return r.modifyInterest(t, unix.EPOLLOUT, 0) }
func (r *epollReactor) DelWriter(t Registrant) error { return r.modifyInterest(t, 0, unix.EPOLLOUT) }

func (r *epollReactor) Poll(timeout time.Duration) error {
	if r.closed.Load() {
		return ErrReactorClosed
	}

	timeoutMs := -1
	if timeout >= 0 {
		timeoutMs = int(timeout.Milliseconds())
	}

	events := make([]unix.EpollEvent, 64)
	n, err := unix.EpollWait(r.epfd, events, timeoutMs)
	if err == unix.EINTR {
		r.opts.debug("reactor: epoll_wait interrupted by signal, retrying", nil)
		return nil
	}
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if fd == r.wake.receiverFD() {
			r.wake.drainReceiver(r.drainPending)
			continue
		}
		t, ok := r.lookup(fd)
		if !ok {
			continue
		}
		mask := events[i].Events
		var ev Events
		if mask&unix.EPOLLIN != 0 {
			ev |= EventRead
		}
		if mask&unix.EPOLLOUT != 0 {
			ev |= EventWrite
		}
		if mask&unix.EPOLLPRI != 0 {
			ev |= EventExcept
		}
		if mask&(unix.EPOLLHUP|unix.EPOLLRDHUP|unix.EPOLLERR) != 0 {
			ev |= EventHangup
		}
		if ev != 0 {
			t.Dispatch(ev)
		}
	}
	return nil
}

func (r *epollReactor) Run() error {
	for {
		if err := r.Poll(-1); err != nil {
			if err == ErrReactorClosed {
				return nil
			}
			return err
		}
	}
}

func (r *epollReactor) Close() error {
	err := r.closeCommon()
	_ = unix.Close(r.epfd)
	return err
}

func (r *epollReactor) StartInterrupt(changeFlagsOnly bool) error { return nil }
func (r *epollReactor) EndInterrupt(changeFlagsOnly bool) error   { return nil }
