package ioelem

// MemoryViewCollector fills a caller-owned, reusable []byte window
// directly, rather than accumulating into its own growing buffer. It
// implements Collector normally (for use inside a CollectorQueue chain),
// and additionally exposes Window/Advance so a transport can read
// straight into the window via RecvInto, skipping the intermediate copy
// Tick would otherwise require.
type MemoryViewCollector struct {
	target []byte
	pos    int
}

// NewMemoryViewCollector wraps target; Tick/RecvInto will fill exactly
// len(target) bytes before reporting done.
func NewMemoryViewCollector(target []byte) *MemoryViewCollector {
	return &MemoryViewCollector{target: target}
}

func (m *MemoryViewCollector) Init() error { return nil }

func (m *MemoryViewCollector) Tick(data []byte) (int, bool, error) {
	n := copy(m.target[m.pos:], data)
	m.pos += n
	return n, m.pos == len(m.target), nil
}

func (m *MemoryViewCollector) Close() error { return nil }

// Window returns the unfilled remainder of the target buffer.
func (m *MemoryViewCollector) Window() []byte { return m.target[m.pos:] }

// Advance records that n bytes were read directly into the slice most
// recently returned by Window, returning whether the window is now full.
func (m *MemoryViewCollector) Advance(n int) bool {
	m.pos += n
	return m.pos == len(m.target)
}
