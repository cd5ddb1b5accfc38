//go:build unix

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SocketPair is a bidirectional, local, full-duplex pair of connected
// sockets usable as a wake-up channel: bytes written on one end are
// readable on the other, and vice versa. Both ends are non-blocking.
type SocketPair struct {
	A int
	B int
}

// NewSocketPair creates a connected pair via socketpair(2).
func NewSocketPair() (*SocketPair, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("reactor: socketpair: %w", err)
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return nil, fmt.Errorf("reactor: set nonblock: %w", err)
		}
	}
	return &SocketPair{A: fds[0], B: fds[1]}, nil
}

// Close closes both ends. Idempotent errors from an already-closed fd are
// ignored.
func (p *SocketPair) Close() error {
	if p == nil {
		return nil
	}
	err1 := unix.Close(p.A)
	err2 := unix.Close(p.B)
	if err1 != nil {
		return err1
	}
	return err2
}
