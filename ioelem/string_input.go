package ioelem

import "io"

// StringInput produces a fixed byte slice, then reports done.
type StringInput struct {
	data []byte
	pos  int
}

// NewStringInput constructs an Input that produces exactly data.
func NewStringInput(data string) *StringInput {
	return &StringInput{data: []byte(data)}
}

func (s *StringInput) Init() error { return nil }

func (s *StringInput) Tick(sink io.Writer) (bool, int, error) {
	if s.pos >= len(s.data) {
		return true, 0, nil
	}
	n, err := sink.Write(s.data[s.pos:])
	s.pos += n
	if err != nil {
		return false, n, err
	}
	return s.pos >= len(s.data), n, nil
}

func (s *StringInput) Close() error { return nil }
