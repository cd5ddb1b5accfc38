//go:build unix

package transport

import (
	"net"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"

	"github.com/fkamperman/netkit/reactor"
)

// AcceptHandler builds a Handler for each freshly accepted connection.
// remoteAddr is the HOST:PORT (or [HOST6]:PORT) the peer connected from.
type AcceptHandler func(conn *SocketTransport, remoteAddr string) Handler

// Server listens on a bound transport and dispatches each accepted
// connection to a Handler built by an AcceptHandler, optionally rate
// limiting accepts per remote address.
type Server struct {
	listener *SocketTransport
	accept   AcceptHandler
	limiter  *catrate.Limiter
	opts     *socketOptions
}

type serverOption struct {
	limiter *catrate.Limiter
}

// ServerOption configures a Server.
type ServerOption interface{ apply(*serverOption) }

type serverOptionFunc func(*serverOption)

func (f serverOptionFunc) apply(o *serverOption) { f(o) }

// WithAcceptRateLimit limits accepted connections per remote address
// according to rates (window duration -> max count within that window, as
// accepted by go-catrate.NewLimiter). Connections over the limit are
// closed immediately, without ever reaching the AcceptHandler.
func WithAcceptRateLimit(rates map[time.Duration]int) ServerOption {
	return serverOptionFunc(func(o *serverOption) { o.limiter = catrate.NewLimiter(rates) })
}

// NewServer binds and listens on address and registers the listening
// transport with r, so connections are accepted as soon as r is polled.
// backlog is the listen(2) backlog.
func NewServer(r reactor.Reactor, address string, defaultPort, backlog int, accept AcceptHandler, opts ...ServerOption) (*Server, error) {
	so := &serverOption{}
	for _, opt := range opts {
		opt.apply(so)
	}

	t, err := NewSocketTransport(r)
	if err != nil {
		return nil, err
	}
	if err := t.Bind(address, defaultPort); err != nil {
		return nil, err
	}

	s := &Server{listener: t, accept: accept, limiter: so.limiter}
	t.SetHandler(&serverListenHandler{server: s})
	if err := t.Listen(backlog); err != nil {
		return nil, err
	}
	return s, nil
}

// Close stops listening and closes the underlying transport.
func (s *Server) Close() error { return s.listener.Close() }

// serverListenHandler is the Handler bound to the listening transport; its
// only meaningful callback is HandleRead, which a listening socket
// receives on every incoming connection.
type serverListenHandler struct {
	BaseHandler
	server *Server
}

func (h *serverListenHandler) HandleRead(t *SocketTransport, _ []byte) {
	for {
		conn, remote, err := t.Accept()
		if err != nil {
			t.opts.debug("transport: accept failed", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
				return bld.Str("error", err.Error())
			})
			t.safeHandler(func() { h.HandleError(t, err) })
			return
		}
		if conn == nil {
			return
		}
		if h.server.limiter != nil {
			host, _, perr := net.SplitHostPort(remote)
			if perr == nil {
				if _, ok := h.server.limiter.Allow(host); !ok {
					_ = conn.Close()
					continue
				}
			}
		}
		conn.SetHandler(h.server.accept(conn, remote))
		if err := t.Reactor().AddTransport(conn); err != nil {
			_ = conn.Close()
		}
	}
}

// Reactor exposes the reactor a transport is registered with, so
// accept-side code (Server) can register newly accepted connections.
func (t *SocketTransport) Reactor() reactor.Reactor { return t.r }
