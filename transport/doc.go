// Package transport wraps non-blocking sockets registered with a reactor,
// driving connection establishment and routing lifecycle events (connect,
// connect-failed, read, write, close, cleanup) to a user-supplied Handler
// exactly once each where required.
package transport
