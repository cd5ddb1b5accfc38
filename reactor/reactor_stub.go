//go:build !unix

package reactor

// On non-unix platforms none of the backends are available; the
// constructors fail closed rather than silently falling back to something
// that would behave differently.

func NewSelect(opts ...Option) (Reactor, error) { return nil, ErrUnsupportedBackend }
func NewPoll(opts ...Option) (Reactor, error)   { return nil, ErrUnsupportedBackend }
func NewEPoll(opts ...Option) (Reactor, error)  { return nil, ErrUnsupportedBackend }
func NewKqueue(opts ...Option) (Reactor, error) { return nil, ErrUnsupportedBackend }
