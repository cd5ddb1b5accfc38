package ioelem

// DelimitedCollector forwards up to n bytes to inner, reporting done once
// exactly n bytes have been consumed regardless of how the source chunks
// them, or earlier if inner itself reports done; any bytes past n are left
// unconsumed for whatever collector follows in a
// CollectorQueue/ConcatCollectors chain.
type DelimitedCollector[C Collector] struct {
	inner     C
	remaining int
}

// NewDelimitedCollector wraps inner, limiting it to exactly n bytes.
func NewDelimitedCollector[C Collector](inner C, n int) *DelimitedCollector[C] {
	return &DelimitedCollector[C]{inner: inner, remaining: n}
}

func (d *DelimitedCollector[C]) Init() error { return d.inner.Init() }

func (d *DelimitedCollector[C]) Tick(data []byte) (int, bool, error) {
	if len(data) > d.remaining {
		data = data[:d.remaining]
	}
	n, innerDone, err := d.inner.Tick(data)
	d.remaining -= n
	if err != nil {
		return n, false, err
	}
	return n, innerDone || d.remaining == 0, nil
}

func (d *DelimitedCollector[C]) Close() error { return d.inner.Close() }

// Inner returns the wrapped collector, so callers can read its Value()
// once Tick reports done.
func (d *DelimitedCollector[C]) Inner() C { return d.inner }
