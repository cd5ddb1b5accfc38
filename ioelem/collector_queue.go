package ioelem

// CollectorQueue is a FIFO of Collectors: like ConcatCollectors, but
// supports appending further Collectors after draining has begun, which
// is what a protocol parser needs when the shape of collector N+1 depends
// on what collector N just parsed.
type CollectorQueue struct {
	queue   []Collector
	started bool
	keep    func(Collector)
}

func NewCollectorQueue() *CollectorQueue { return &CollectorQueue{} }

// Push appends a Collector to the back of the queue.
func (q *CollectorQueue) Push(c Collector) { q.queue = append(q.queue, c) }

func (q *CollectorQueue) Init() error {
	if len(q.queue) == 0 {
		return nil
	}
	q.started = true
	return q.queue[0].Init()
}

func (q *CollectorQueue) Tick(data []byte) (int, bool, error) {
	total := 0
	for len(q.queue) > 0 && len(data) > 0 {
		if !q.started {
			if err := q.queue[0].Init(); err != nil {
				return total, false, err
			}
			q.started = true
		}
		n, done, err := q.queue[0].Tick(data)
		total += n
		data = data[n:]
		if err != nil {
			return total, false, err
		}
		if !done {
			return total, false, nil
		}
		if err := q.queue[0].Close(); err != nil {
			return total, false, err
		}
		q.onComplete(q.queue[0])
		q.queue = q.queue[1:]
		q.started = false
	}
	return total, len(q.queue) == 0, nil
}

// onComplete retains the finished collector if KeepingCollectorQueue wired
// a keep function; the base queue otherwise discards it.
func (q *CollectorQueue) onComplete(c Collector) {
	if q.keep != nil {
		q.keep(c)
	}
}

func (q *CollectorQueue) Close() error {
	if !q.started || len(q.queue) == 0 {
		return nil
	}
	return q.queue[0].Close()
}

// KeepingCollectorQueue behaves exactly like CollectorQueue, except it
// retains every completed Collector (in arrival order) for later
// inspection via Completed, instead of discarding it.
type KeepingCollectorQueue struct {
	CollectorQueue
	completed []Collector
}

func NewKeepingCollectorQueue() *KeepingCollectorQueue {
	q := &KeepingCollectorQueue{}
	q.CollectorQueue.keep = q.keep
	return q
}

func (q *KeepingCollectorQueue) keep(c Collector) { q.completed = append(q.completed, c) }

// Completed returns every Collector that has finished so far.
func (q *KeepingCollectorQueue) Completed() []Collector { return q.completed }

// FactoryCollector lazily creates its underlying Collector from factory on
// Init, for consumers whose shape isn't known until the moment collection
// starts (e.g. depends on a previously parsed length/type field).
type FactoryCollector struct {
	factory func() (Collector, error)
	inner   Collector
}

func NewFactoryCollector(factory func() (Collector, error)) *FactoryCollector {
	return &FactoryCollector{factory: factory}
}

func (f *FactoryCollector) Init() error {
	c, err := f.factory()
	if err != nil {
		return err
	}
	f.inner = c
	return f.inner.Init()
}

func (f *FactoryCollector) Tick(data []byte) (int, bool, error) { return f.inner.Tick(data) }
func (f *FactoryCollector) Close() error                         { return f.inner.Close() }
