package ioelem

// StringCollector accumulates every byte it's given until explicitly
// closed; there is no notion of "full" -- Tick always reports done=false
// and Value only becomes meaningful once the caller is done feeding it
// (e.g. at connection close). It is the usual top-level collector for a
// raw, unframed byte stream.
type StringCollector struct {
	buf []byte
}

func NewStringCollector() *StringCollector { return &StringCollector{} }

func (s *StringCollector) Init() error { return nil }

func (s *StringCollector) Tick(data []byte) (int, bool, error) {
	s.buf = append(s.buf, data...)
	return len(data), false, nil
}

func (s *StringCollector) Close() error { return nil }

// Value returns everything collected so far.
func (s *StringCollector) Value() []byte { return s.buf }
