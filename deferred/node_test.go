package deferred

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeAddFiresSynchronouslyWhenAlreadyResolved(t *testing.T) {
	n := NewNode()
	n.resolveSuccess("hello")

	var got any
	n.Add(func(v any) (any, error) {
		got = v
		return v, nil
	}, nil)

	assert.Equal(t, "hello", got)
}

func TestNodeChaining(t *testing.T) {
	n := NewNode()
	var order []string
	n.Add(func(v any) (any, error) {
		order = append(order, "first")
		return v.(int) + 1, nil
	}, nil).Add(func(v any) (any, error) {
		order = append(order, "second")
		return v.(int) * 2, nil
	}, nil)

	n.resolveSuccess(1)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestNodeDefaultErrbackReraises(t *testing.T) {
	n := NewNode()
	boom := errors.New("boom")
	child := n.Add(nil, nil)
	n.resolveError(boom)

	_, err, resolved := child.Synchronize(nil)
	require.True(t, resolved)
	assert.ErrorIs(t, err, boom)
}

func TestNodeEscapeCachesVerbatim(t *testing.T) {
	inner := New()
	n := NewNode()
	var gotVal any
	n.Add(func(v any) (any, error) {
		return Escape{Value: inner}, nil
	}, nil).Add(func(v any) (any, error) {
		gotVal = v
		return v, nil
	}, nil)

	n.resolveSuccess(nil)
	assert.Same(t, inner, gotVal)
}

func TestNodeChainsOntoAwaitable(t *testing.T) {
	inner := New()
	n := NewNode()
	var gotVal any
	done := make(chan struct{})
	n.Add(func(v any) (any, error) {
		return inner, nil
	}, nil).Add(func(v any) (any, error) {
		gotVal = v
		close(done)
		return v, nil
	}, nil)

	n.resolveSuccess(nil)
	inner.SubmitSuccess("resolved-later")
	<-done
	assert.Equal(t, "resolved-later", gotVal)
}

func TestNodeResolvesAtMostOnce(t *testing.T) {
	n := NewNode()
	n.resolveSuccess(1)
	n.resolveSuccess(2)
	n.resolveError(errors.New("ignored"))

	v, err, resolved := n.Synchronize(nil)
	require.True(t, resolved)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestChainRejectsSecondChild(t *testing.T) {
	c := NewChain()
	_, err := c.Add(nil, nil)
	require.NoError(t, err)
	_, err = c.Add(nil, nil)
	assert.ErrorIs(t, err, ErrChainFull)
}

func TestSignalFireAndOnce(t *testing.T) {
	s := NewSignal()
	var permCount, onceCount int
	s.Listen(func(args ...any) { permCount++ })
	s.ListenOnce(func(args ...any) { onceCount++ })

	s.Fire()
	s.Fire()

	assert.Equal(t, 2, permCount)
	assert.Equal(t, 1, onceCount)
}
