package ioelem

import (
	"errors"
	"io"
)

// Depleted is returned by the producer function given to WrapIterator once
// it has no more data to offer. FactoryInput and FactoryCollector do not
// treat it specially: they call their factory once, on Init, and return any
// error it reports, Depleted included, from Init.
var Depleted = errors.New("ioelem: input depleted")

// Input is a lazy byte producer. Init runs once before the first Tick;
// Close runs once after the final Tick (whether it finished normally or
// via an error). Tick writes whatever it currently has available to sink
// and reports whether the input is now exhausted.
type Input interface {
	Init() error
	Tick(sink io.Writer) (done bool, n int, err error)
	Close() error
}

// concatInput runs a sequence of Inputs one after another: it forms a
// monoid under Concat, with an empty concatInput as the identity element.
type concatInput struct {
	inputs  []Input
	idx     int
	started bool
}

// Concat composes inputs into a single Input that exhausts them in order.
// Concat() returns an already-done empty input (the monoid identity);
// Concat(a, Concat(b, c)) behaves the same as Concat(Concat(a, b), c).
func Concat(inputs ...Input) Input {
	flat := make([]Input, 0, len(inputs))
	for _, in := range inputs {
		if c, ok := in.(*concatInput); ok {
			flat = append(flat, c.inputs...)
			continue
		}
		flat = append(flat, in)
	}
	return &concatInput{inputs: flat}
}

func (c *concatInput) Init() error {
	if len(c.inputs) == 0 {
		return nil
	}
	c.started = true
	return c.inputs[0].Init()
}

func (c *concatInput) Tick(sink io.Writer) (bool, int, error) {
	for c.idx < len(c.inputs) {
		done, n, err := c.inputs[c.idx].Tick(sink)
		if err != nil {
			return false, n, err
		}
		if !done {
			return false, n, nil
		}
		if err := c.inputs[c.idx].Close(); err != nil {
			return false, n, err
		}
		c.idx++
		if c.idx < len(c.inputs) {
			if err := c.inputs[c.idx].Init(); err != nil {
				return false, n, err
			}
		}
		if n > 0 {
			return c.idx >= len(c.inputs), n, nil
		}
	}
	return true, 0, nil
}

func (c *concatInput) Close() error {
	if !c.started || c.idx >= len(c.inputs) {
		return nil
	}
	return c.inputs[c.idx].Close()
}
