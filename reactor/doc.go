// Package reactor implements a single-threaded, readiness-based event
// demultiplexer over non-blocking sockets, with concrete backends over
// select(2), poll(2), epoll(7), and kqueue. It also owns the thread-safe
// wake-up and "interrupt" protocol that lets other goroutines safely mutate
// reactor-owned state or schedule work onto the reactor goroutine.
//
// Callers register a Registrant (typically a *transport.SocketTransport)
// with a Reactor and then drive it with Run or repeated calls to Poll. All
// dispatch happens on whichever goroutine calls Poll/Run; no two Registrants
// are ever dispatched concurrently by the same Reactor.
package reactor
