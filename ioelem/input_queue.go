package ioelem

import (
	"errors"
	"io"
)

// InputQueue is a FIFO of Inputs: it behaves like Concat, but supports
// appending further Inputs after construction (and after draining has
// begun), which is what SocketTransport's ElementHandler needs for an
// outbound queue that user code keeps feeding.
type InputQueue struct {
	queue   []Input
	started bool
}

func NewInputQueue() *InputQueue { return &InputQueue{} }

// Push appends an Input to the back of the queue.
func (q *InputQueue) Push(in Input) { q.queue = append(q.queue, in) }

// Len reports how many inputs (including the one currently draining)
// remain in the queue.
func (q *InputQueue) Len() int { return len(q.queue) }

func (q *InputQueue) Init() error {
	if len(q.queue) == 0 {
		return nil
	}
	q.started = true
	return q.queue[0].Init()
}

func (q *InputQueue) Tick(sink io.Writer) (bool, int, error) {
	for len(q.queue) > 0 {
		if !q.started {
			if err := q.queue[0].Init(); err != nil {
				return false, 0, err
			}
			q.started = true
		}
		done, n, err := q.queue[0].Tick(sink)
		if err != nil {
			return false, n, err
		}
		if !done {
			return false, n, nil
		}
		if err := q.queue[0].Close(); err != nil {
			return false, n, err
		}
		q.queue = q.queue[1:]
		q.started = false
		if n > 0 {
			return len(q.queue) == 0, n, nil
		}
	}
	return true, 0, nil
}

func (q *InputQueue) Close() error {
	if !q.started || len(q.queue) == 0 {
		return nil
	}
	return q.queue[0].Close()
}

// FactoryInput lazily creates its underlying Input from factory on Init,
// for producers whose content isn't known until the moment they start
// draining. The factory is called once; FactoryInput is done when that one
// Input is done.
type FactoryInput struct {
	factory func() (Input, error)
	inner   Input
}

func NewFactoryInput(factory func() (Input, error)) *FactoryInput {
	return &FactoryInput{factory: factory}
}

func (f *FactoryInput) Init() error {
	in, err := f.factory()
	if err != nil {
		return err
	}
	f.inner = in
	return f.inner.Init()
}

func (f *FactoryInput) Tick(sink io.Writer) (bool, int, error) { return f.inner.Tick(sink) }
func (f *FactoryInput) Close() error                            { return f.inner.Close() }

// iteratorInput adapts a Go iterator function -- one returning Depleted
// once exhausted -- into an Input.
type iteratorInput struct {
	next   func() ([]byte, error)
	buf    []byte
	done   bool
}

// WrapIterator builds an Input around a function that produces successive
// chunks, returning Depleted (wrapped or bare, checked with errors.Is) once
// there is nothing left to produce.
func WrapIterator(next func() ([]byte, error)) Input {
	return &iteratorInput{next: next}
}

func (it *iteratorInput) Init() error { return nil }

func (it *iteratorInput) Tick(sink io.Writer) (bool, int, error) {
	if it.done {
		return true, 0, nil
	}
	if len(it.buf) == 0 {
		chunk, err := it.next()
		if errors.Is(err, Depleted) {
			it.done = true
			return true, 0, nil
		}
		if err != nil {
			return false, 0, err
		}
		it.buf = chunk
	}
	n, err := sink.Write(it.buf)
	it.buf = it.buf[n:]
	if err != nil {
		return false, n, err
	}
	return false, n, nil
}

func (it *iteratorInput) Close() error { return nil }
