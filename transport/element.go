//go:build unix

package transport

import "github.com/fkamperman/netkit/ioelem"

// transportWriter adapts SocketTransport.Send to io.Writer for ElementHandler's
// outbound Input.Tick calls. A partial write (n < len(p), err == nil) is
// not reported as an error: Input implementations retry the remainder on
// a later Tick, matching this package's internal sink convention.
type transportWriter struct{ t *SocketTransport }

func (w transportWriter) Write(p []byte) (int, error) { return w.t.Send(p) }

// ElementHandler glues an outbound ioelem.InputQueue and a pluggable,
// replaceable ioelem.Collector to a transport: HandleRead feeds bytes into
// the current collector, and HandleWrite drains the outbound queue.
// Embed it (or BaseHandler) to pick up connect/except/error defaults.
type ElementHandler struct {
	BaseHandler

	Out *ioelem.InputQueue

	in         ioelem.Collector
	inStarted  bool
	next       func() (ioelem.Collector, error)
	onMessage  func(ioelem.Collector)
	outStarted bool
}

// NewElementHandler constructs an ElementHandler that starts by filling
// initial. Once initial reports done, onMessage (if set) is called with
// it, then next (if set) supplies a fresh Collector to continue parsing
// subsequent frames; if next is nil, further reads are ignored once the
// current collector completes.
func NewElementHandler(initial ioelem.Collector, next func() (ioelem.Collector, error), onMessage func(ioelem.Collector)) *ElementHandler {
	return &ElementHandler{
		Out:       ioelem.NewInputQueue(),
		in:        initial,
		next:      next,
		onMessage: onMessage,
	}
}

// Enqueue appends data to the outbound queue, subscribing the transport
// for write readiness if the queue was previously empty and idle.
func (e *ElementHandler) Enqueue(t *SocketTransport, in ioelem.Input) error {
	empty := e.Out.Len() == 0
	e.Out.Push(in)
	if empty {
		return t.SetWriteable(true)
	}
	return nil
}

func (e *ElementHandler) HandleRead(t *SocketTransport, data []byte) {
	for len(data) > 0 {
		if e.in == nil {
			return
		}
		if !e.inStarted {
			if err := e.in.Init(); err != nil {
				t.safeHandler(func() { t.handler.HandleError(t, err) })
				_ = t.Close()
				return
			}
			e.inStarted = true
		}

		n, done, err := e.in.Tick(data)
		data = data[n:]
		if err != nil {
			t.safeHandler(func() { t.handler.HandleError(t, err) })
			_ = t.Close()
			return
		}
		if !done {
			if n == 0 {
				// A Collector reporting no progress and not done on
				// non-empty input would otherwise spin this loop forever,
				// hanging the single-threaded reactor for every
				// connection, not just this one.
				return
			}
			continue
		}

		if err := e.in.Close(); err != nil {
			t.safeHandler(func() { t.handler.HandleError(t, err) })
			_ = t.Close()
			return
		}
		finished := e.in
		e.inStarted = false
		if e.onMessage != nil {
			e.onMessage(finished)
		}
		if e.next == nil {
			e.in = nil
			continue
		}
		next, err := e.next()
		if err != nil {
			t.safeHandler(func() { t.handler.HandleError(t, err) })
			_ = t.Close()
			return
		}
		e.in = next
	}
}

func (e *ElementHandler) HandleWrite(t *SocketTransport) {
	if e.Out.Len() == 0 {
		_ = t.SetWriteable(false)
		return
	}
	if !e.outStarted {
		if err := e.Out.Init(); err != nil {
			_ = t.Close()
			return
		}
		e.outStarted = true
	}
	done, _, err := e.Out.Tick(transportWriter{t: t})
	if err != nil {
		_ = t.Close()
		return
	}
	if done {
		e.outStarted = false
		_ = t.SetWriteable(false)
	}
}

var _ Handler = (*ElementHandler)(nil)
