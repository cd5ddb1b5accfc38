//go:build unix

package reactor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// base holds the state and behavior shared by every unix backend: the
// transport registry, the wake-up channel, the call_synchronized queue, and
// common Close/AddTransport/DelTransport bookkeeping. Concrete backends
// embed base and add their own interest-mask/poll-loop logic.
type base struct {
	opts *reactorOptions

	mu       sync.RWMutex
	registry map[int]Registrant
	closed   atomic.Bool

	wake *wakeChannel

	pendingMu sync.Mutex
	pending   []func()
}

func newBase(opts *reactorOptions) (*base, error) {
	wake, err := newWakeChannel()
	if err != nil {
		return nil, err
	}
	return &base{
		opts:     opts,
		registry: make(map[int]Registrant),
		wake:     wake,
	}, nil
}

func (b *base) register(t Registrant) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.registry[t.FD()]; ok {
		return ErrAlreadyRegistered
	}
	b.registry[t.FD()] = t
	return nil
}

func (b *base) unregister(t Registrant) {
	b.mu.Lock()
	delete(b.registry, t.FD())
	b.mu.Unlock()
}

func (b *base) lookup(fd int) (Registrant, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.registry[fd]
	return t, ok
}

func (b *base) snapshot() []Registrant {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Registrant, 0, len(b.registry))
	for _, t := range b.registry {
		out = append(out, t)
	}
	return out
}

// CallSynchronized implements Reactor.CallSynchronized.
func (b *base) CallSynchronized(fn func()) error {
	if b.closed.Load() {
		return ErrReactorClosed
	}
	b.pendingMu.Lock()
	b.pending = append(b.pending, fn)
	b.pendingMu.Unlock()
	b.opts.debug("reactor: call_synchronized queued, nudging wake channel", nil)
	return b.wake.Nudge()
}

func (b *base) drainPending() {
	b.pendingMu.Lock()
	fns := b.pending
	b.pending = nil
	b.pendingMu.Unlock()
	if len(fns) > 0 {
		b.opts.debug("reactor: draining call_synchronized queue", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
			return bld.Int("count", len(fns))
		})
	}
	for _, fn := range fns {
		fn()
	}
}

// closeCommon marks the reactor closed, runs Cleanup on every still
// registered transport, and releases the wake channel. Idempotent.
func (b *base) closeCommon() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.mu.Lock()
	transports := make([]Registrant, 0, len(b.registry))
	for _, t := range b.registry {
		transports = append(transports, t)
	}
	b.registry = make(map[int]Registrant)
	b.mu.Unlock()

	var errs []error
	for _, t := range transports {
		if err := safeCleanup(t); err != nil {
			errs = append(errs, err)
		}
	}

	_ = b.wake.Close()

	if len(errs) > 0 {
		return &CleanupErrors{Errors: errs}
	}
	return nil
}

func safeCleanup(t Registrant) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicDuringCleanup{fd: t.FD(), value: r}
		}
	}()
	t.Cleanup()
	return nil
}

type panicDuringCleanup struct {
	fd    int
	value any
}

func (e *panicDuringCleanup) Error() string {
	return fmt.Sprintf("reactor: cleanup panic on fd %d: %v", e.fd, e.value)
}
