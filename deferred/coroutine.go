package deferred

import "fmt"

// PanicError wraps a panic value recovered from a coroutine body or a
// RunBlocking function, so it can be delivered as a normal error outcome
// instead of crashing the process.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string { return fmt.Sprintf("deferred: panic: %v", e.Value) }

// outcome tags a resumption value the way the distilled coroutine protocol
// tags SUCCESS/ERROR sends.
type outcome struct {
	isError bool
	value   any
	err     error
}

// Yield suspends the calling goroutine until the given awaitable resolves,
// then returns its success value, or its error.
type Yield func(a awaitableValue) (any, error)

// awaitableValue is the user-facing alias of the package-private awaitable
// contract, exported so callers can yield on *Node or *Deferred values
// without needing to know the interface's name.
type awaitableValue = awaitable

// Gen is a coroutine body: it receives a Yield function to suspend on
// awaitables and returns its final value, or an error.
type Gen func(yield Yield) (any, error)

// CallCoroutine runs gen on a new goroutine and returns a Deferred that
// resolves exactly once: with gen's return value on a normal return, with
// gen's error if it returns one, or with a PanicError if gen panics. This is
// the direct-style replacement for a generator-driven coroutine: yield
// parks the goroutine on a channel instead of suspending a generator frame.
func CallCoroutine(gen Gen) *Deferred {
	d := New()
	resumeCh := make(chan outcome, 1)

	yield := func(a awaitableValue) (any, error) {
		a.AddCallbacks(
			func(v any) { resumeCh <- outcome{value: v} },
			func(err error) { resumeCh <- outcome{isError: true, err: err} },
		)
		o := <-resumeCh
		if o.isError {
			return nil, o.err
		}
		return o.value, nil
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.SubmitError(PanicError{Value: r})
			}
		}()
		value, err := gen(yield)
		if err != nil {
			d.SubmitError(err)
			return
		}
		d.SubmitSuccess(value)
	}()

	return d
}

// Synchronizer delivers a function call onto a specific goroutine (most
// commonly a reactor's), per Reactor.CallSynchronized. RunBlocking uses it
// to ensure a threaded coroutine's result is only ever observed on that
// goroutine.
type Synchronizer interface {
	CallSynchronized(fn func()) error
}

// RunBlocking runs fn on a new goroutine and resolves the returned Deferred
// with its result. If sync is non-nil, resolution is delivered through
// sync.CallSynchronized; if that fails (for example because the reactor has
// already shut down), resolution falls back to happening directly on fn's
// goroutine, matching the distilled design's emphasis on deferreds always
// settling even across shutdown races.
func RunBlocking(sync Synchronizer, fn func() (any, error)) *Deferred {
	d := New()

	go func() {
		var (
			value any
			err   error
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = PanicError{Value: r}
				}
			}()
			value, err = fn()
		}()

		resolve := func() {
			if err != nil {
				d.SubmitError(err)
			} else {
				d.SubmitSuccess(value)
			}
		}

		if sync == nil || sync.CallSynchronized(resolve) != nil {
			resolve()
		}
	}()

	return d
}
