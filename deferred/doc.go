// Package deferred provides callback-graph primitives for values that
// resolve later: Node (an arbitrary tree of success/error continuations),
// Chain (a linear specialization of Node), Blueprint (a reusable template
// that stamps out fresh Node trees), Deferred (a thin handle around a root
// Node), CallCoroutine (direct-style code built on top of a Deferred), and
// Signal (a fire-many pub/sub primitive).
//
// Everything here runs its callbacks synchronously, on whichever goroutine
// resolves the node. Callers that need the callback to run on a specific
// goroutine (for example, the reactor's) are expected to hop there
// themselves, typically via a CallSynchronized-style handoff.
package deferred
