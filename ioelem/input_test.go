package ioelem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringInputProducesExactBytes(t *testing.T) {
	m := &MockHandler{}
	require.NoError(t, m.Drive(NewStringInput("hello world")))
	assert.Equal(t, "hello world", m.Sent.String())
}

func TestConcatIsAssociative(t *testing.T) {
	left := Concat(NewStringInput("a"), Concat(NewStringInput("b"), NewStringInput("c")))
	right := Concat(Concat(NewStringInput("a"), NewStringInput("b")), NewStringInput("c"))

	m1, m2 := &MockHandler{}, &MockHandler{}
	require.NoError(t, m1.Drive(left))
	require.NoError(t, m2.Drive(right))
	assert.Equal(t, "abc", m1.Sent.String())
	assert.Equal(t, m1.Sent.String(), m2.Sent.String())
}

func TestConcatEmptyIsIdentity(t *testing.T) {
	withEmpty := Concat(NewStringInput("x"), Concat(), NewStringInput("y"))
	m := &MockHandler{}
	require.NoError(t, m.Drive(withEmpty))
	assert.Equal(t, "xy", m.Sent.String())
}

func TestInputQueueDrainsInOrderAndAcceptsAppends(t *testing.T) {
	q := NewInputQueue()
	q.Push(NewStringInput("one-"))
	q.Push(NewStringInput("two"))

	m := &MockHandler{}
	require.NoError(t, q.Init())
	done, _, err := q.Tick(&m.Sent)
	require.NoError(t, err)
	require.False(t, done)
	q.Push(NewStringInput("-three"))

	for {
		done, _, err = q.Tick(&m.Sent)
		require.NoError(t, err)
		if done {
			break
		}
	}
	assert.Equal(t, "one-two-three", m.Sent.String())
}

func TestWrapIteratorStopsOnDepleted(t *testing.T) {
	chunks := [][]byte{[]byte("a"), []byte("b")}
	idx := 0
	it := WrapIterator(func() ([]byte, error) {
		if idx >= len(chunks) {
			return nil, Depleted
		}
		c := chunks[idx]
		idx++
		return c, nil
	})

	m := &MockHandler{}
	require.NoError(t, m.Drive(it))
	assert.Equal(t, "ab", m.Sent.String())
}
