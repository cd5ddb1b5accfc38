//go:build unix

package transport

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/logiface"

	"github.com/fkamperman/netkit/netaddr"
	"github.com/fkamperman/netkit/reactor"
)

const recvBufferSize = 65536

// SocketTransport owns a single non-blocking socket registered with a
// Reactor. It implements reactor.Registrant directly: the reactor detects
// raw OS-level readiness only, and Dispatch owns everything downstream of
// that -- hangup-peek detection, read/write/except/close ordering, and
// awaiting-connect completion.
type SocketTransport struct {
	r       reactor.Reactor
	opts    *socketOptions
	handler Handler

	mu      sync.Mutex
	fd      int
	family  int
	state   connectState
	bound   bool
	listen  bool

	readable  bool
	writeable bool

	// writePinDepth/writePinSaved implement a shared writeable pin: both
	// an in-progress connect and an in-flight SendAllTrait drain force
	// write-interest subscription without losing the user's own writeable
	// setting. The two sources nest via the depth counter -- only the
	// first pin saves the real value, and only the last matching unpin
	// restores it, so either source resolving first never clobbers a
	// still-active pin from the other.
	writePinDepth int
	writePinSaved bool

	closed    atomic.Bool
	cleanedUp atomic.Bool
}

// NewSocketTransport creates an unbound, unconnected transport with no
// socket yet. The first Bind/Connect call creates the stream socket, with
// the address family of the address it is given.
func NewSocketTransport(r reactor.Reactor, opts ...Option) (*SocketTransport, error) {
	o := resolveOptions(opts)
	t := &SocketTransport{r: r, opts: o, handler: o.handler, fd: -1}
	return t, nil
}

// FromFD wraps an existing fd, such as one returned by Accept. The
// connected state is taken from the connected argument, not detected from
// the fd; a connected transport starts readable. The transport is never
// marked as listening, so Accept on it returns ErrNotListening.
func FromFD(r reactor.Reactor, fd int, connected bool, opts ...Option) *SocketTransport {
	o := resolveOptions(opts)
	t := &SocketTransport{r: r, opts: o, handler: o.handler, fd: fd}
	if connected {
		t.state = stateConnected
		t.readable = true
	}
	return t
}

func (t *SocketTransport) SetHandler(h Handler) { t.handler = h }

func (t *SocketTransport) ensureSocket(family int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fd >= 0 {
		return nil
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return err
	}
	t.fd = fd
	t.family = family
	return nil
}

func sockaddrFor(host string, port int) (unix.Sockaddr, int, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, 0, fmt.Errorf("transport: invalid address %q", host)
	}
	if v4 := ip.To4(); v4 != nil {
		var addr [4]byte
		copy(addr[:], v4)
		return &unix.SockaddrInet4{Port: port, Addr: addr}, unix.AF_INET, nil
	}
	var addr [16]byte
	copy(addr[:], ip.To16())
	return &unix.SockaddrInet6{Port: port, Addr: addr}, unix.AF_INET6, nil
}

// Bind binds the transport's socket to address (HOST:PORT or [HOST6]:PORT).
func (t *SocketTransport) Bind(address string, defaultPort int) error {
	host, port, err := netaddr.ParseIP(address, defaultPort)
	if err != nil {
		return err
	}
	sa, family, err := sockaddrFor(host, port)
	if err != nil {
		return err
	}
	if err := t.ensureSocket(family); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := unix.SetsockoptInt(t.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}
	if err := unix.Bind(t.fd, sa); err != nil {
		return err
	}
	t.bound = true
	return nil
}

// Listen marks the transport as a listening socket, ready for Accept.
func (t *SocketTransport) Listen(backlog int) error {
	t.mu.Lock()
	fd := t.fd
	if err := unix.Listen(fd, backlog); err != nil {
		t.mu.Unlock()
		return err
	}
	t.listen = true
	t.readable = true
	t.mu.Unlock()
	// AddTransport calls back into FD/Readable/Writeable/AwaitingConnect,
	// each of which locks t.mu, so it must run with the lock released.
	return t.r.AddTransport(t)
}

// Accept accepts one pending connection, returning a new connected
// SocketTransport and the remote address in HOST:PORT form.
func (t *SocketTransport) Accept() (*SocketTransport, string, error) {
	t.mu.Lock()
	listening := t.listen
	fd := t.fd
	t.mu.Unlock()
	if !listening {
		return nil, "", ErrNotListening
	}
	nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, "", nil
		}
		return nil, "", err
	}
	conn := FromFD(t.r, nfd, true)
	return conn, remoteAddrString(sa), nil
}

func remoteAddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		ip := net.IP(a.Addr[:])
		return fmt.Sprintf("%s:%d", ip.String(), a.Port)
	case *unix.SockaddrInet6:
		ip := net.IP(a.Addr[:])
		return fmt.Sprintf("[%s]:%d", ip.String(), a.Port)
	default:
		return ""
	}
}

// Connect begins (or, for loopback sockets, immediately completes) an
// outbound connection. Calling Connect more than once on the same
// transport is rejected with ErrAlreadyConnecting.
func (t *SocketTransport) Connect(address string, defaultPort int) error {
	// Claim the transport immediately: state moves out of stateNew under
	// this one lock acquisition, so two concurrent Connect calls can't
	// both pass the guard and both drive the same fd.
	t.mu.Lock()
	if t.state != stateNew {
		t.mu.Unlock()
		return ErrAlreadyConnecting
	}
	t.state = stateConnecting
	t.mu.Unlock()

	host, port, err := netaddr.ParseIP(address, defaultPort)
	if err != nil {
		t.mu.Lock()
		t.state = stateFailed
		t.mu.Unlock()
		return err
	}
	sa, family, err := sockaddrFor(host, port)
	if err != nil {
		t.mu.Lock()
		t.state = stateFailed
		t.mu.Unlock()
		return err
	}
	if err := t.ensureSocket(family); err != nil {
		t.mu.Lock()
		t.state = stateFailed
		t.mu.Unlock()
		return err
	}

	t.mu.Lock()
	fd := t.fd
	t.mu.Unlock()

	err = unix.Connect(fd, sa)
	if err == nil {
		t.mu.Lock()
		t.state = stateConnected
		t.readable = true
		t.mu.Unlock()
		if err := t.r.AddTransport(t); err != nil {
			return err
		}
		t.opts.debug("transport: connect completed synchronously", nil)
		t.safeHandler(func() { t.handler.HandleConnect(t) })
		return nil
	}
	if err != unix.EINPROGRESS {
		t.mu.Lock()
		t.state = stateFailed
		t.mu.Unlock()
		return &ConnectError{Errno: err}
	}

	t.mu.Lock()
	t.readable = true
	t.beginWritePinLocked()
	t.mu.Unlock()
	t.opts.debug("transport: connect in progress, awaiting writeability", nil)
	// AddTransport registers interest with writeable already forced true
	// above, so no separate AddWriter call is needed (and none would
	// succeed yet -- the fd isn't registered with the reactor until this
	// call returns).
	return t.r.AddTransport(t)
}

// beginWritePinLocked increments the shared write pin depth, saving the
// real writeable value on the first (outermost) pin. Must be called with
// t.mu held.
func (t *SocketTransport) beginWritePinLocked() {
	if t.writePinDepth == 0 {
		t.writePinSaved = t.writeable
		t.writeable = true
	}
	t.writePinDepth++
}

// pinWriteable is beginWritePinLocked plus the reactor call, for pin
// sources (SendAllTrait) that start after the transport is already
// registered with the reactor.
func (t *SocketTransport) pinWriteable() {
	t.mu.Lock()
	t.beginWritePinLocked()
	t.mu.Unlock()
	_ = t.r.AddWriter(t)
}

// unpinWriteable releases one pin acquired via beginWritePinLocked or
// pinWriteable. Only once the depth reaches zero does it restore the
// saved writeable value and resync the reactor-observed interest to
// match -- unconditionally, since the pinned period may have left the
// reactor's notion of interest out of sync with t.writeable without ever
// calling SetWriteable (whose idempotency check would otherwise see no
// change and skip the resync).
func (t *SocketTransport) unpinWriteable() {
	t.mu.Lock()
	if t.writePinDepth == 0 {
		t.mu.Unlock()
		return
	}
	t.writePinDepth--
	if t.writePinDepth > 0 {
		t.mu.Unlock()
		return
	}
	t.writeable = t.writePinSaved
	want := t.writeable
	t.mu.Unlock()
	if want {
		_ = t.r.AddWriter(t)
	} else {
		_ = t.r.DelWriter(t)
	}
}

func (t *SocketTransport) classifyErrno(err error) error {
	switch err {
	case nil:
		return nil
	case unix.EAGAIN, unix.EINTR:
		t.opts.debug("transport: syscall interrupted or would block, swallowing", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
			return bld.Str("errno", err.Error())
		})
		return nil
	case unix.ECONNRESET, unix.ECONNABORTED, unix.ENOTCONN, unix.ESHUTDOWN, unix.EPIPE:
		return ErrConnectionLost
	default:
		return err
	}
}

// Send writes data to the socket. A partial or zero write due to a full
// send buffer is reported as (n, nil); callers needing "send all
// eventually" semantics should use SendAllTrait.
func (t *SocketTransport) Send(data []byte) (int, error) {
	t.mu.Lock()
	fd := t.fd
	t.mu.Unlock()
	n, err := unix.Write(fd, data)
	if err != nil {
		if classified := t.classifyErrno(err); classified != nil {
			if classified == ErrConnectionLost {
				t.doClose()
			}
			return 0, classified
		}
		return 0, nil
	}
	return n, nil
}

// Recv reads up to max bytes. A nil, nil result means either that no data
// is currently available (EAGAIN) or that the peer closed the connection,
// in which case the transport has been closed.
func (t *SocketTransport) Recv(max int) ([]byte, error) {
	buf := make([]byte, max)
	n, err := t.RecvInto(buf)
	if err != nil || n == 0 {
		return nil, err
	}
	return buf[:n], nil
}

// RecvInto reads directly into buf, avoiding an allocation. Recv and the
// read path of Dispatch use it; no collector reads through it directly.
func (t *SocketTransport) RecvInto(buf []byte) (int, error) {
	t.mu.Lock()
	fd := t.fd
	t.mu.Unlock()
	n, err := unix.Read(fd, buf)
	if err != nil {
		if classified := t.classifyErrno(err); classified != nil {
			if classified == ErrConnectionLost {
				t.doClose()
			}
			return 0, classified
		}
		return 0, nil
	}
	if n == 0 {
		t.doClose()
		return 0, nil
	}
	return n, nil
}

// Peek returns up to max bytes without consuming them from the socket
// buffer.
func (t *SocketTransport) Peek(max int) ([]byte, error) {
	t.mu.Lock()
	fd := t.fd
	t.mu.Unlock()
	buf := make([]byte, max)
	n, _, err := unix.Recvfrom(fd, buf, unix.MSG_PEEK)
	if err != nil {
		if classified := t.classifyErrno(err); classified != nil {
			return nil, classified
		}
		return nil, nil
	}
	return buf[:n], nil
}

// --- reactor.Registrant ---

func (t *SocketTransport) FD() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fd
}

func (t *SocketTransport) Readable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readable
}

func (t *SocketTransport) Writeable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeable
}

func (t *SocketTransport) AwaitingConnect() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == stateConnecting
}

// SetReadable/SetWriteable are idempotent: setting an interest flag to its
// current value never touches the reactor.
func (t *SocketTransport) SetReadable(v bool) error {
	t.mu.Lock()
	changed := t.readable != v
	t.readable = v
	t.mu.Unlock()
	if !changed {
		return nil
	}
	if v {
		return t.r.AddReader(t)
	}
	return t.r.DelReader(t)
}

func (t *SocketTransport) SetWriteable(v bool) error {
	t.mu.Lock()
	if t.writePinDepth > 0 {
		// A pin is holding write interest on; record the caller's value so
		// the last unpin restores it instead of the pre-pin value.
		t.writePinSaved = v
		t.mu.Unlock()
		return nil
	}
	changed := t.writeable != v
	t.writeable = v
	t.mu.Unlock()
	if !changed {
		return nil
	}
	if v {
		return t.r.AddWriter(t)
	}
	return t.r.DelWriter(t)
}

func (t *SocketTransport) safeHandler(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			if t.handler != nil {
				t.handler.HandleError(t, &HandlerPanicError{Value: rec})
			}
		}
	}()
	if t.handler != nil {
		fn()
	}
}

// Dispatch translates a raw readiness bitmask into ordered handler
// callbacks: a pending connect is resolved first and exclusively; then
// read (with hangup-peek), then write, then except, then close.
func (t *SocketTransport) Dispatch(ev reactor.Events) {
	if t.closed.Load() {
		return
	}

	// Until a connect resolves there is no peer to hang up on or data to
	// read yet, so any readiness at all on this fd is connect completion.
	if t.AwaitingConnect() {
		t.completeConnect()
		return
	}

	if ev.Has(reactor.EventRead) {
		if t.isListening() {
			t.safeHandler(func() { t.handler.HandleRead(t, nil) })
		} else if t.dispatchRead() {
			return
		}
	}
	if t.closed.Load() {
		return
	}
	if ev.Has(reactor.EventWrite) {
		t.safeHandler(func() { t.handler.HandleWrite(t) })
	}
	if t.closed.Load() {
		return
	}
	if ev.Has(reactor.EventExcept) {
		t.safeHandler(func() { t.handler.HandleExcept(t) })
	}
	if ev.Has(reactor.EventHangup) {
		t.doClose()
	}
}

func (t *SocketTransport) isListening() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listen
}

// dispatchRead peeks one byte to distinguish a genuine hangup from
// ordinary readability, then performs the real read. Returns true if the
// transport was closed as a result.
func (t *SocketTransport) dispatchRead() bool {
	peek, err := t.Peek(1)
	if err == ErrConnectionLost {
		t.doClose()
		return true
	}
	if err == nil && peek != nil && len(peek) == 0 {
		t.doClose()
		return true
	}

	buf := make([]byte, recvBufferSize)
	n, err := t.RecvInto(buf)
	if err != nil {
		return t.closed.Load()
	}
	if n > 0 {
		t.safeHandler(func() { t.handler.HandleRead(t, buf[:n]) })
	}
	return t.closed.Load()
}

func (t *SocketTransport) completeConnect() {
	t.mu.Lock()
	fd := t.fd
	t.mu.Unlock()

	errno, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if gerr != nil {
		errno = int(unix.EIO)
	}

	if errno != 0 {
		t.mu.Lock()
		t.state = stateFailed
		t.mu.Unlock()
		t.unpinWriteable()
		cerr := &ConnectError{Errno: fmt.Errorf("errno %d", errno)}
		t.opts.debug("transport: connect failed", func(bld *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
			return bld.Int("errno", errno)
		})
		t.safeHandler(func() { t.handler.HandleConnectFailed(t, cerr) })
		// A failed connect never fires handle_close (Testable Property
		// #3): unregister and release the fd directly, mirroring
		// Cleanup's fd-close logic, without going through doClose.
		t.closed.CompareAndSwap(false, true)
		t.r.DelTransport(t)
		t.Cleanup()
		return
	}

	t.mu.Lock()
	t.state = stateConnected
	t.mu.Unlock()
	t.unpinWriteable()
	t.opts.debug("transport: connect completed", nil)
	t.safeHandler(func() { t.handler.HandleConnect(t) })
}

// Close closes the transport's socket and unregisters it from the
// reactor. HandleClose and HandleCleanup each fire at most once, even if
// Close is called multiple times or concurrently with a dispatch-driven
// close.
func (t *SocketTransport) Close() error {
	t.doClose()
	t.Cleanup()
	return nil
}

func (t *SocketTransport) doClose() {
	if !t.closed.CompareAndSwap(false, true) {
		return
	}
	t.opts.debug("transport: closing", nil)
	t.r.DelTransport(t)
	t.safeHandler(func() { t.handler.HandleClose(t) })
}

// Cleanup implements reactor.Registrant; it is also invoked directly by
// Close for callers that close a transport outside of a reactor cycle
// (e.g. one that was never registered, such as a failed Connect).
func (t *SocketTransport) Cleanup() {
	if !t.cleanedUp.CompareAndSwap(false, true) {
		return
	}
	t.mu.Lock()
	fd := t.fd
	t.fd = -1
	t.mu.Unlock()
	if fd >= 0 {
		_ = unix.Close(fd)
	}
	if t.handler != nil {
		t.safeHandler(func() { t.handler.HandleCleanup(t) })
	}
}

func (t *SocketTransport) State() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.String()
}
