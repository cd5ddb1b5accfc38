package ioelem

// Collector is a byte consumer. Init runs once before the first Tick;
// Close runs once after the collector reports done (or errors). Tick may
// consume fewer bytes than it was given -- e.g. a DelimitedCollector stops
// once its byte limit is reached -- leaving the remainder for whatever
// collector (if any) follows it in a CollectorQueue.
type Collector interface {
	Init() error
	Tick(data []byte) (consumed int, done bool, err error)
	Close() error
}

// concatCollector feeds a sequence of Collectors one after another: it
// forms a monoid under ConcatCollectors, with an empty concatCollector as
// the identity element.
type concatCollector struct {
	collectors []Collector
	idx        int
	started    bool
}

// ConcatCollectors composes collectors into a single Collector that fills
// them in order. ConcatCollectors() returns an already-done empty
// collector (the monoid identity).
func ConcatCollectors(collectors ...Collector) Collector {
	flat := make([]Collector, 0, len(collectors))
	for _, c := range collectors {
		if cc, ok := c.(*concatCollector); ok {
			flat = append(flat, cc.collectors...)
			continue
		}
		flat = append(flat, c)
	}
	return &concatCollector{collectors: flat}
}

func (c *concatCollector) Init() error {
	if len(c.collectors) == 0 {
		return nil
	}
	c.started = true
	return c.collectors[0].Init()
}

func (c *concatCollector) Tick(data []byte) (int, bool, error) {
	total := 0
	for c.idx < len(c.collectors) && len(data) > 0 {
		n, done, err := c.collectors[c.idx].Tick(data)
		total += n
		data = data[n:]
		if err != nil {
			return total, false, err
		}
		if !done {
			return total, false, nil
		}
		if err := c.collectors[c.idx].Close(); err != nil {
			return total, false, err
		}
		c.idx++
		if c.idx < len(c.collectors) {
			if err := c.collectors[c.idx].Init(); err != nil {
				return total, false, err
			}
		}
	}
	return total, c.idx >= len(c.collectors), nil
}

func (c *concatCollector) Close() error {
	if !c.started || c.idx >= len(c.collectors) {
		return nil
	}
	return c.collectors[c.idx].Close()
}
