package ioelem

import (
	"bytes"
	"encoding/binary"
)

// StructCollector collects exactly binary.Size(template) bytes; Decode then
// reads them into a caller-supplied value using encoding/binary, per order.
// template must be a fixed-size value or a pointer to one (no strings,
// slices, or maps); it is only used for its size.
type StructCollector struct {
	order binary.ByteOrder
	bytes *ByteArrayCollector
}

// NewStructCollector builds a StructCollector sized to binary.Size(template),
// using order for multi-byte fields when Decode is called.
func NewStructCollector(order binary.ByteOrder, template any) *StructCollector {
	size := binary.Size(template)
	return &StructCollector{
		order: order,
		bytes: NewByteArrayCollector(size),
	}
}

func (s *StructCollector) Init() error { return s.bytes.Init() }

func (s *StructCollector) Tick(data []byte) (int, bool, error) {
	return s.bytes.Tick(data)
}

func (s *StructCollector) Close() error { return s.bytes.Close() }

// Decode reads the collected bytes into out (a pointer to the same shape
// as the template passed to NewStructCollector). Valid once Tick reports
// done.
func (s *StructCollector) Decode(out any) error {
	return binary.Read(bytes.NewReader(s.bytes.Value()), s.order, out)
}

// SingleStructValueCollector is a StructCollector specialized for a single
// fixed-width scalar (e.g. a big-endian uint32 length prefix), returning
// the decoded value directly instead of requiring a separate Decode call.
type SingleStructValueCollector[T any] struct {
	inner *StructCollector
	value T
}

func NewSingleStructValueCollector[T any](order binary.ByteOrder) *SingleStructValueCollector[T] {
	var zero T
	return &SingleStructValueCollector[T]{inner: NewStructCollector(order, &zero)}
}

func (s *SingleStructValueCollector[T]) Init() error { return s.inner.Init() }

func (s *SingleStructValueCollector[T]) Tick(data []byte) (int, bool, error) {
	n, done, err := s.inner.Tick(data)
	if done && err == nil {
		err = s.inner.Decode(&s.value)
	}
	return n, done, err
}

func (s *SingleStructValueCollector[T]) Close() error { return s.inner.Close() }

// Value returns the decoded scalar; valid once Tick reports done.
func (s *SingleStructValueCollector[T]) Value() T { return s.value }
