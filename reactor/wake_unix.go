//go:build unix

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// control bytes exchanged over a reactor's wake-up SocketPair.
const (
	byteNudge byte = 'w' // call_synchronized: drain the pending queue
	byteStart byte = 's' // begin a full interrupt handshake
	byteAck   byte = 'i' // reactor's acknowledgement of byteStart
	byteEnd   byte = 'e' // release a paused reactor
)

// wakeChannel drives the reactor's wake-up/interrupt protocol over a
// SocketPair. A is used by external goroutines (sender); B is owned by the
// reactor goroutine (receiver), registered for read readiness with every
// backend.
type wakeChannel struct {
	pair *SocketPair
}

func newWakeChannel() (*wakeChannel, error) {
	pair, err := NewSocketPair()
	if err != nil {
		return nil, err
	}
	return &wakeChannel{pair: pair}, nil
}

func (w *wakeChannel) receiverFD() int { return w.pair.B }

// Nudge wakes the reactor without requiring a handshake; used by
// CallSynchronized. Coalescing is fine: the reactor drains its whole pending
// queue on any wake byte.
func (w *wakeChannel) Nudge() error {
	_, err := unix.Write(w.pair.A, []byte{byteNudge})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

// drainReceiver reads every immediately-available byte on B. For each
// byteStart it encounters, it acknowledges and then blocks (pausing the
// calling, i.e. reactor, goroutine) until the matching byteEnd arrives,
// before resuming the drain. onNudge is invoked once per byteNudge seen.
func (w *wakeChannel) drainReceiver(onNudge func()) error {
	buf := make([]byte, 1)
	for {
		n, err := unix.Read(w.pair.B, buf)
		if err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		switch buf[0] {
		case byteNudge:
			if onNudge != nil {
				onNudge()
			}
		case byteStart:
			if err := w.ackAndWaitForEnd(onNudge); err != nil {
				return err
			}
		}
	}
}

// ackAndWaitForEnd acknowledges a handshake start and blocks the reactor
// goroutine until the mutator releases it with byteEnd. A byteNudge from a
// concurrent CallSynchronized may legitimately interleave on the shared wake
// fd while the pause is held; it is delivered to onNudge rather than being
// mistaken for the release byte.
func (w *wakeChannel) ackAndWaitForEnd(onNudge func()) error {
	if _, err := unix.Write(w.pair.B, []byte{byteAck}); err != nil && err != unix.EAGAIN {
		return err
	}
	return w.blockingReadUntil(w.pair.B, byteEnd, onNudge)
}

// blockingReadUntil waits (via poll(2), since the fd is non-blocking) for a
// byte matching want on fd, discarding it once found. Any byteNudge read
// while waiting is delivered to onNudge and the wait continues; any other
// unexpected byte is discarded.
func (w *wakeChannel) blockingReadUntil(fd int, want byte, onNudge func()) error {
	buf := make([]byte, 1)
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Read(fd, buf)
		if err == nil && n > 0 {
			if buf[0] == want {
				return nil
			}
			if buf[0] == byteNudge && onNudge != nil {
				onNudge()
			}
			continue
		}
		if err != nil && err != unix.EAGAIN {
			return err
		}
		if _, err := unix.Poll(fds, -1); err != nil && err != unix.EINTR {
			return fmt.Errorf("reactor: wake poll: %w", err)
		}
	}
}

// StartHandshake is the mutator (external-goroutine) side of a full
// interrupt: it sends byteStart and blocks until the reactor acknowledges,
// guaranteeing the reactor is parked between polls by the time this
// returns.
func (w *wakeChannel) StartHandshake() error {
	if _, err := unix.Write(w.pair.A, []byte{byteStart}); err != nil && err != unix.EAGAIN {
		return err
	}
	return w.blockingReadUntil(w.pair.A, byteAck, nil)
}

// EndHandshake releases a reactor paused by StartHandshake.
func (w *wakeChannel) EndHandshake() error {
	_, err := unix.Write(w.pair.A, []byte{byteEnd})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (w *wakeChannel) Close() error {
	if w == nil {
		return nil
	}
	return w.pair.Close()
}
