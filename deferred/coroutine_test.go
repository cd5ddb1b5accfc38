package deferred

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCoroutineChain mirrors scenario S5: a coroutine bar awaits a deferred
// a; a coroutine foo awaits bar; once a resolves, foo's synchronize reflects
// the chained result.
func TestCoroutineChain(t *testing.T) {
	a := New()

	bar := func(yield Yield) (any, error) {
		v, err := yield(a)
		if err != nil {
			return nil, err
		}
		return v, nil
	}

	foo := func(yield Yield) (any, error) {
		barDeferred := CallCoroutine(bar)
		v, err := yield(barDeferred)
		if err != nil {
			return nil, err
		}
		return "yay " + v.(string), nil
	}

	fooDeferred := CallCoroutine(foo)
	a.SubmitSuccess("yay")

	v, err, resolved := fooDeferred.Synchronize(nil)
	require.True(t, resolved)
	require.NoError(t, err)
	assert.Equal(t, "yay yay", v)
}

// TestCoroutineYieldAlreadyResolvedDoesNotBlock establishes invariant #10:
// yielding an already-resolved awaitable returns immediately.
func TestCoroutineYieldAlreadyResolvedDoesNotBlock(t *testing.T) {
	already := New()
	already.SubmitSuccess("v")

	gen := func(yield Yield) (any, error) {
		return yield(already)
	}

	d := CallCoroutine(gen)
	v, err, resolved := d.Synchronize(nil)
	require.True(t, resolved)
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestCoroutineErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	gen := func(yield Yield) (any, error) {
		return nil, boom
	}
	d := CallCoroutine(gen)
	_, err, resolved := d.Synchronize(nil)
	require.True(t, resolved)
	assert.ErrorIs(t, err, boom)
}

func TestCoroutinePanicBecomesPanicError(t *testing.T) {
	gen := func(yield Yield) (any, error) {
		panic("oops")
	}
	d := CallCoroutine(gen)
	_, err, resolved := d.Synchronize(nil)
	require.True(t, resolved)
	var panicErr PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "oops", panicErr.Value)
}

type fakeSynchronizer struct {
	fail bool
}

func (f *fakeSynchronizer) CallSynchronized(fn func()) error {
	if f.fail {
		return errors.New("closed")
	}
	fn()
	return nil
}

func TestRunBlockingDeliversThroughSynchronizer(t *testing.T) {
	sync := &fakeSynchronizer{}
	d := RunBlocking(sync, func() (any, error) {
		return 42, nil
	})
	v, err, resolved := d.Synchronize(nil)
	require.True(t, resolved)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRunBlockingFallsBackWhenSynchronizerFails(t *testing.T) {
	sync := &fakeSynchronizer{fail: true}
	d := RunBlocking(sync, func() (any, error) {
		return "fallback", nil
	})
	v, err, resolved := d.Synchronize(nil)
	require.True(t, resolved)
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
}
