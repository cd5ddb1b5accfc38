package deferred

import "errors"

// ErrChainFull is returned by Chain.Add when the chain already has a child;
// a Chain represents a linear pipeline, not a branching tree.
var ErrChainFull = errors.New("deferred: chain already has a child")

// Chain is a Node variant restricted to at most one child, representing a
// linear continuation pipeline that can be spliced into a larger Node tree.
type Chain struct {
	*Node
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{Node: NewNode()}
}

// Add appends the sole child of this chain. A second call returns
// ErrChainFull and leaves the chain untouched.
//
// This duplicates Node.Add's body rather than delegating to it, since the
// "already has a child" check and the append must happen under a single
// critical section (both guard the same c.children) -- calling Node.Add
// under c.mu would deadlock against its own locking, and releasing c.mu
// between the check and the call would let two concurrent Add calls both
// pass the check and both append.
func (c *Chain) Add(callback SuccessFunc, errback ErrorFunc) (*Node, error) {
	c.mu.Lock()
	if len(c.children) > 0 {
		c.mu.Unlock()
		return nil, ErrChainFull
	}

	child := newChildNode(callback, errback)
	if !c.resolved {
		c.children = append(c.children, child)
		c.mu.Unlock()
		return child, nil
	}
	isError, successVal, errorVal := c.isError, c.successVal, c.errorVal
	c.mu.Unlock()

	if isError {
		child.settleErrorFrom(errorVal)
	} else {
		child.settleSuccessFrom(successVal)
	}
	return child, nil
}
