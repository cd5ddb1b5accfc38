package deferred

import (
	"sync"
)

// SuccessFunc is a continuation invoked with a node's incoming success value.
// It may return a plain value (cached as the node's own success outcome), an
// error (the node settles as an error instead), an Escape wrapper (the
// wrapped value is cached verbatim, without chaining), or any value
// implementing the awaitable contract (AddCallbacks) — in which case the
// node chains onto it instead of settling immediately.
type SuccessFunc func(value any) (any, error)

// ErrorFunc is the error-path counterpart of SuccessFunc. Returning a nil
// error recovers: the returned value becomes the node's success outcome,
// subject to the same Escape/awaitable handling as SuccessFunc.
type ErrorFunc func(err error) (any, error)

// awaitable is satisfied by anything that can have continuations attached:
// both *Node and *Deferred implement it.
type awaitable interface {
	AddCallbacks(onSuccess func(any), onError func(error))
}

// Escape wraps a value so that a SuccessFunc/ErrorFunc can return an
// awaitable (most commonly a *Deferred) as the literal cached outcome of a
// node, rather than having the node transparently chain onto it.
type Escape struct {
	Value any
}

func defaultSuccess(value any) (any, error) { return value, nil }
func defaultError(err error) (any, error)   { return nil, err }

// Node is the atomic continuation primitive: a tree of success/error
// callbacks. A node caches at most one outcome (success or error, mutually
// exclusive) and propagates it to every child exactly once.
type Node struct {
	mu       sync.Mutex
	children []*Node
	callback SuccessFunc
	errback  ErrorFunc

	resolved   bool
	isError    bool
	successVal any
	errorVal   error
	done       chan struct{}
}

// NewNode creates an unresolved root node with no callback/errback of its
// own; it exists purely to hold children and a cached outcome.
func NewNode() *Node {
	return &Node{
		callback: defaultSuccess,
		errback:  defaultError,
		done:     make(chan struct{}),
	}
}

func newChildNode(callback SuccessFunc, errback ErrorFunc) *Node {
	if callback == nil {
		callback = defaultSuccess
	}
	if errback == nil {
		errback = defaultError
	}
	return &Node{
		callback: callback,
		errback:  errback,
		done:     make(chan struct{}),
	}
}

// Add appends a child node bound to the given callback/errback pair. If this
// node already holds a cached outcome, the child fires synchronously with
// that outcome instead of being queued. A nil callback/errback defaults to
// identity/re-raise respectively.
func (n *Node) Add(callback SuccessFunc, errback ErrorFunc) *Node {
	child := newChildNode(callback, errback)

	n.mu.Lock()
	if !n.resolved {
		n.children = append(n.children, child)
		n.mu.Unlock()
		return child
	}
	isError, successVal, errorVal := n.isError, n.successVal, n.errorVal
	n.mu.Unlock()

	if isError {
		child.settleErrorFrom(errorVal)
	} else {
		child.settleSuccessFrom(successVal)
	}
	return child
}

// AddCallbacks implements awaitable by wrapping plain side-effect functions
// into a pass-through child node.
func (n *Node) AddCallbacks(onSuccess func(any), onError func(error)) {
	n.Add(
		func(v any) (any, error) {
			if onSuccess != nil {
				onSuccess(v)
			}
			return v, nil
		},
		func(err error) (any, error) {
			if onError != nil {
				onError(err)
			}
			return nil, err
		},
	)
}

// Callback replaces the success continuation, returning the node for
// chaining.
func (n *Node) Callback(callback SuccessFunc) *Node {
	n.mu.Lock()
	n.callback = callback
	n.mu.Unlock()
	return n
}

// Errback replaces the error continuation, returning the node for chaining.
func (n *Node) Errback(errback ErrorFunc) *Node {
	n.mu.Lock()
	n.errback = errback
	n.mu.Unlock()
	return n
}

// settleSuccessFrom is the entry point used when a parent delivers a success
// value to this node: it runs this node's own callback against it.
func (n *Node) settleSuccessFrom(value any) {
	n.mu.Lock()
	cb := n.callback
	n.mu.Unlock()
	result, err := cb(value)
	n.visit(result, err)
}

// settleErrorFrom is the error-path counterpart of settleSuccessFrom.
func (n *Node) settleErrorFrom(cause error) {
	n.mu.Lock()
	eb := n.errback
	n.mu.Unlock()
	result, err := eb(cause)
	n.visit(result, err)
}

// visit applies the outcome of invoking this node's callback/errback: errors
// settle as an error outcome, Escape-wrapped values settle verbatim as a
// success outcome, awaitable results are chained onto, and everything else
// settles as a plain success outcome.
func (n *Node) visit(value any, err error) {
	if err != nil {
		n.resolveError(err)
		return
	}
	if esc, ok := value.(Escape); ok {
		n.resolveSuccess(esc.Value)
		return
	}
	if a, ok := value.(awaitable); ok {
		a.AddCallbacks(n.resolveSuccess, n.resolveError)
		return
	}
	n.resolveSuccess(value)
}

// resolveSuccess caches a success outcome (if not already resolved) and
// fires every child.
func (n *Node) resolveSuccess(value any) {
	n.mu.Lock()
	if n.resolved {
		n.mu.Unlock()
		return
	}
	n.resolved = true
	n.isError = false
	n.successVal = value
	children := n.children
	n.children = nil
	n.mu.Unlock()
	close(n.done)

	for _, c := range children {
		c.settleSuccessFrom(value)
	}
}

// resolveError caches an error outcome (if not already resolved) and fires
// every child.
func (n *Node) resolveError(err error) {
	n.mu.Lock()
	if n.resolved {
		n.mu.Unlock()
		return
	}
	n.resolved = true
	n.isError = true
	n.errorVal = err
	children := n.children
	n.children = nil
	n.mu.Unlock()
	close(n.done)

	for _, c := range children {
		c.settleErrorFrom(err)
	}
}

// Wait blocks until the node resolves, or timeoutCh fires first (pass nil to
// wait indefinitely).
func (n *Node) Wait(timeoutCh <-chan struct{}) {
	if timeoutCh == nil {
		<-n.done
		return
	}
	select {
	case <-n.done:
	case <-timeoutCh:
	}
}

// Synchronize waits for resolution and returns the cached success value, or
// the cached error. If timeoutCh fires before resolution, it returns
// (nil, nil, false).
func (n *Node) Synchronize(timeoutCh <-chan struct{}) (value any, err error, resolved bool) {
	n.Wait(timeoutCh)
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.resolved {
		return nil, nil, false
	}
	if n.isError {
		return nil, n.errorVal, true
	}
	return n.successVal, nil, true
}

// Done returns the channel that closes once the node resolves.
func (n *Node) Done() <-chan struct{} { return n.done }
