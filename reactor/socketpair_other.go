//go:build !unix

package reactor

import "errors"

// SocketPair is unavailable on non-unix platforms; this module only ships
// unix reactor backends.
type SocketPair struct{}

func NewSocketPair() (*SocketPair, error) {
	return nil, errors.New("reactor: socketpair unsupported on this platform")
}

func (p *SocketPair) Close() error { return nil }
