package ioelem

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringCollectorNeverReportsDone(t *testing.T) {
	c := NewStringCollector()
	n, done, err := Feed(c, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.False(t, done)
	assert.Equal(t, "hello", string(c.Value()))
}

func TestDelimitedCollectorStopsAfterExactlyNBytesRegardlessOfChunking(t *testing.T) {
	c := NewDelimitedCollector(NewStringCollector(), 5)
	require.NoError(t, c.Init())

	n, done, err := c.Tick([]byte("hel"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, done)

	n, done, err = c.Tick([]byte("loworld"))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "must consume exactly up to the n-byte limit, leaving the remainder unconsumed")
	assert.True(t, done)
	assert.Equal(t, "hello", string(c.Inner().Value()))
}

func TestDelimitedCollectorReportsDoneWhenInnerFillsBeforeTheLimit(t *testing.T) {
	c := NewDelimitedCollector(NewByteArrayCollector(3), 5)

	n, done, err := c.Tick([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, done, "inner reaching its own capacity must end the Tick even though only 3 of 5 limit bytes were consumed")
	assert.Equal(t, "abc", string(c.Inner().Value()))
}

func TestByteArrayCollectorFillsExactly(t *testing.T) {
	c := NewByteArrayCollector(4)
	n, done, err := Feed(c, []byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, done)
	assert.Equal(t, "abcd", string(c.Value()))
}

func TestConcatCollectorsComposesInOrder(t *testing.T) {
	head := NewByteArrayCollector(2)
	tail := NewDelimitedCollector(NewStringCollector(), 5)
	chain := ConcatCollectors(head, tail)

	n, done, err := Feed(chain, []byte("hiworld"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, len("hiworld"), n)
	assert.Equal(t, "hi", string(head.Value()))
	assert.Equal(t, "world", string(tail.Inner().Value()))
}

func TestKeepingCollectorQueueRetainsCompleted(t *testing.T) {
	q := NewKeepingCollectorQueue()
	q.Push(NewByteArrayCollector(3))
	q.Push(NewByteArrayCollector(3))

	_, done, err := Feed(q, []byte("abcdef"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Len(t, q.Completed(), 2)
}

func TestMemoryViewCollectorFillsWindowWithoutExtraCopyAPI(t *testing.T) {
	target := make([]byte, 5)
	c := NewMemoryViewCollector(target)
	require.NoError(t, c.Init())

	n := copy(c.Window(), []byte("ab"))
	done := c.Advance(n)
	assert.False(t, done)

	n = copy(c.Window(), []byte("cde"))
	done = c.Advance(n)
	assert.True(t, done)
	assert.Equal(t, "abcde", string(target))
}

func TestSingleStructValueCollectorDecodesBigEndianUint32(t *testing.T) {
	c := NewSingleStructValueCollector[uint32](binary.BigEndian)
	n, done, err := Feed(c, []byte{0x00, 0x00, 0x01, 0x2c})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, done)
	assert.Equal(t, uint32(300), c.Value())
}
