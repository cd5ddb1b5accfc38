//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package reactor

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/logiface"
)

// kqueueReactor is the other "rock-solid" backend. Each transport gets a
// persistent read filter (if readable) and a write filter added/removed on
// demand; EV_EOF on either filter maps to EventHangup. kqueue never
// synthesizes except conditions, so HandleExcept is unreachable through
// this backend. Interest changes are applied immediately via kevent(2), so
// both flavors of the interrupt protocol are no-ops.
type kqueueReactor struct {
	*base

	kq int
}

// NewKqueue constructs a Reactor backed by kqueue(2).
func NewKqueue(opts ...Option) (Reactor, error) {
	b, err := newBase(resolveOptions(opts))
	if err != nil {
		return nil, err
	}
	kq, err := unix.Kqueue()
	if err != nil {
		_ = b.wake.Close()
		return nil, err
	}
	r := &kqueueReactor{base: b, kq: kq}
	changes := []unix.Kevent_t{{
		Ident:  uint64(b.wake.receiverFD()),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD,
	}}
	if _, err := unix.Kevent(kq, changes, nil, nil); err != nil {
		_ = unix.Close(kq)
		_ = b.wake.Close()
		return nil, err
	}
	b.opts.debug("reactor: backend selected", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
		return bld.Str("backend", "kqueue")
	})
	return r, nil
}

func (r *kqueueReactor) applyFilter(fd int, filter int16, flag uint16) error {
	changes := []unix.Kevent_t{{
		Ident:  uint64(fd),
		Filter: filter,
		Flags:  flag,
	}}
	_, err := unix.Kevent(r.kq, changes, nil, nil)
	return err
}

func (r *kqueueReactor) AddTransport(t Registrant) error {
	if err := r.register(t); err != nil {
		return err
	}
	if t.Readable() {
		if err := r.applyFilter(t.FD(), unix.EVFILT_READ, unix.EV_ADD); err != nil {
			r.unregister(t)
			return err
		}
	}
	if t.Writeable() || t.AwaitingConnect() {
		if err := r.applyFilter(t.FD(), unix.EVFILT_WRITE, unix.EV_ADD); err != nil {
			r.unregister(t)
			return err
		}
	}
	return nil
}

func (r *kqueueReactor) DelTransport(t Registrant) {
	r.unregister(t)
	_ = r.applyFilter(t.FD(), unix.EVFILT_READ, unix.EV_DELETE)
	_ = r.applyFilter(t.FD(), unix.EVFILT_WRITE, unix.EV_DELETE)
}

func (r *kqueueReactor) AddReader(t Registrant) error {
	return r.applyFilter(t.FD(), unix.EVFILT_READ, unix.EV_ADD)
}

func (r *kqueueReactor) DelReader(t Registrant) error {
	return r.applyFilter(t.FD(), unix.EVFILT_READ, unix.EV_DELETE)
}

func (r *kqueueReactor) AddWriter(t Registrant) error {
	return r.applyFilter(t.FD(), unix.EVFILT_WRITE, unix.EV_ADD)
}

func (r *kqueueReactor) DelWriter(t Registrant) error {
	return r.applyFilter(t.FD(), unix.EVFILT_WRITE, unix.EV_DELETE)
}

func (r *kqueueReactor) Poll(timeout time.Duration) error {
	if r.closed.Load() {
		return ErrReactorClosed
	}

	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	events := make([]unix.Kevent_t, 64)
	n, err := unix.Kevent(r.kq, nil, events, ts)
	if err == unix.EINTR {
		r.opts.debug("reactor: kevent interrupted by signal, retrying", nil)
		return nil
	}
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		fd := int(events[i].Ident)
		if fd == r.wake.receiverFD() {
			r.wake.drainReceiver(r.drainPending)
			continue
		}
		t, ok := r.lookup(fd)
		if !ok {
			continue
		}
		var ev Events
		switch events[i].Filter {
		case unix.EVFILT_READ:
			ev |= EventRead
		case unix.EVFILT_WRITE:
			ev |= EventWrite
		}
		if events[i].Flags&unix.EV_EOF != 0 {
			ev |= EventHangup
		}
		if ev != 0 {
			t.Dispatch(ev)
		}
	}
	return nil
}

func (r *kqueueReactor) Run() error {
	for {
		if err := r.Poll(-1); err != nil {
			if err == ErrReactorClosed {
				return nil
			}
			return err
		}
	}
}

func (r *kqueueReactor) Close() error {
	err := r.closeCommon()
	_ = unix.Close(r.kq)
	return err
}

func (r *kqueueReactor) StartInterrupt(changeFlagsOnly bool) error { return nil }
func (r *kqueueReactor) EndInterrupt(changeFlagsOnly bool) error   { return nil }
