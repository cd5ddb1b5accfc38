//go:build unix

package transport

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/fkamperman/netkit/reactor"
)

// localPort reads back the ephemeral port the kernel assigned on Bind.
func (t *SocketTransport) localPort(tb testing.TB) int {
	tb.Helper()
	sa, err := unix.Getsockname(t.FD())
	require.NoError(tb, err)
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return a.Port
	case *unix.SockaddrInet6:
		return a.Port
	default:
		tb.Fatalf("unexpected sockaddr type %T", sa)
		return 0
	}
}

type echoHandler struct {
	BaseHandler
	received chan []byte
}

func (h *echoHandler) HandleRead(t *SocketTransport, data []byte) {
	cp := append([]byte(nil), data...)
	h.received <- cp
	_, _ = t.Send(data)
}

func TestEchoServerClient(t *testing.T) {
	r, err := reactor.NewEPoll()
	require.NoError(t, err)
	go func() { _ = r.Run() }()
	defer r.Close()

	received := make(chan []byte, 1)
	srv, err := NewServer(r, "127.0.0.1:0", 0, 16, func(conn *SocketTransport, _ string) Handler {
		return &echoHandler{received: received}
	})
	require.NoError(t, err)
	defer srv.Close()

	port := srv.listener.localPort(t)

	replies := make(chan []byte, 1)
	clientHandler := &captureHandler{replies: replies}
	client, err := NewSocketTransport(r, WithHandler(clientHandler))
	require.NoError(t, err)

	require.NoError(t, client.Connect(addrWithPort("127.0.0.1", port), 0))

	require.Eventually(t, func() bool {
		return client.State() == "connected"
	}, 2*time.Second, 10*time.Millisecond)

	_, err = client.Send([]byte("ping"))
	require.NoError(t, err)

	select {
	case reply := <-replies:
		assert.Equal(t, "ping", string(reply))
	case <-time.After(2 * time.Second):
		t.Fatal("never received echo reply")
	}
}

type captureHandler struct {
	BaseHandler
	replies chan []byte
}

func (h *captureHandler) HandleRead(t *SocketTransport, data []byte) {
	cp := append([]byte(nil), data...)
	h.replies <- cp
}

func TestConnectRefusedInvokesHandleConnectFailed(t *testing.T) {
	r, err := reactor.NewEPoll()
	require.NoError(t, err)
	go func() { _ = r.Run() }()
	defer r.Close()

	// bind a socket to reserve a free port, then close it without ever
	// listening, so the follow-up connect is refused.
	probe, err := NewSocketTransport(r)
	require.NoError(t, err)
	require.NoError(t, probe.Bind("127.0.0.1:0", 0))
	port := probe.localPort(t)
	require.NoError(t, unix.Close(probe.FD()))

	failed := make(chan error, 1)
	h := &connectFailHandler{failed: failed}
	client, err := NewSocketTransport(r, WithHandler(h))
	require.NoError(t, err)
	require.NoError(t, client.Connect(addrWithPort("127.0.0.1", port), 0))

	select {
	case err := <-failed:
		var connErr *ConnectError
		assert.ErrorAs(t, err, &connErr)
	case <-time.After(2 * time.Second):
		t.Fatal("HandleConnectFailed never fired")
	}

	// give any (incorrect) HandleClose call a chance to land before
	// asserting its absence.
	time.Sleep(100 * time.Millisecond)
	assert.False(t, h.closed.Load(), "HandleConnectFailed must never also fire HandleClose")
}

type connectFailHandler struct {
	BaseHandler
	failed chan error
	closed atomic.Bool
}

func (h *connectFailHandler) HandleConnectFailed(_ *SocketTransport, err error) {
	h.failed <- err
}

func (h *connectFailHandler) HandleClose(*SocketTransport) {
	h.closed.Store(true)
}

func TestSendAllTraitDrainsAcrossMultipleWriteEvents(t *testing.T) {
	r, err := reactor.NewEPoll()
	require.NoError(t, err)
	go func() { _ = r.Run() }()
	defer r.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	totalReceived := 0
	serverDone := make(chan struct{})

	srv, err := NewServer(r, "127.0.0.1:0", 0, 16, func(conn *SocketTransport, _ string) Handler {
		return &sinkHandler{onByte: func(n int) {
			totalReceived += n
			if totalReceived >= 1<<20 {
				close(serverDone)
			}
		}}
	})
	require.NoError(t, err)
	defer srv.Close()
	port := srv.listener.localPort(t)

	sendHandler := &sendAllHandler{}
	client, err := NewSocketTransport(r, WithHandler(sendHandler))
	require.NoError(t, err)
	_ = unix.SetsockoptInt(client.FD(), unix.SOL_SOCKET, unix.SO_SNDBUF, 4096)
	require.NoError(t, client.Connect(addrWithPort("127.0.0.1", port), 0))

	require.Eventually(t, func() bool { return client.State() == "connected" }, 2*time.Second, 10*time.Millisecond)

	payload := make([]byte, 1<<20)
	require.NoError(t, sendHandler.send.SendAll(client, payload))

	select {
	case <-serverDone:
	case <-time.After(5 * time.Second):
		t.Fatalf("server only received %d of %d bytes", totalReceived, 1<<20)
	}

	require.Eventually(t, func() bool {
		return !client.Writeable()
	}, 2*time.Second, 10*time.Millisecond, "SendAllTrait must restore the pre-drain writeable value, not leave it forced true")
}

type sendAllHandler struct {
	BaseHandler
	send SendAllTrait
}

func (h *sendAllHandler) HandleWrite(t *SocketTransport) { _ = h.send.Drain(t) }

type sinkHandler struct {
	BaseHandler
	onByte func(n int)
}

func (h *sinkHandler) HandleRead(_ *SocketTransport, data []byte) { h.onByte(len(data)) }

func addrWithPort(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}
