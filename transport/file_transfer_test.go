//go:build unix

package transport

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fkamperman/netkit/ioelem"
	"github.com/fkamperman/netkit/reactor"
)

// TestFileTransferOverConnection streams a temp file to a connected peer
// via AutoFileInput queued on an ElementHandler, and asserts the receiving
// side collects the exact bytes sent.
func TestFileTransferOverConnection(t *testing.T) {
	r, err := reactor.NewEPoll()
	require.NoError(t, err)
	go func() { _ = r.Run() }()
	defer r.Close()

	payload := make([]byte, 3<<20)
	for i := range payload {
		payload[i] = byte(i)
	}

	f, err := os.CreateTemp(t.TempDir(), "transfer")
	require.NoError(t, err)
	_, err = f.Write(payload)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = os.Open(f.Name())
	require.NoError(t, err)

	received := ioelem.NewByteArrayCollector(len(payload))
	done := make(chan struct{})
	serverEH := NewElementHandler(received, nil, func(ioelem.Collector) { close(done) })

	srv, err := NewServer(r, "127.0.0.1:0", 0, 16, func(conn *SocketTransport, _ string) Handler {
		return serverEH
	})
	require.NoError(t, err)
	defer srv.Close()
	port := srv.listener.localPort(t)

	clientEH := NewElementHandler(ioelem.NewStringCollector(), nil, nil)
	client, err := NewSocketTransport(r, WithHandler(clientEH))
	require.NoError(t, err)
	require.NoError(t, client.Connect(addrWithPort("127.0.0.1", port), 0))
	require.Eventually(t, func() bool { return client.State() == "connected" }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, clientEH.Enqueue(client, ioelem.NewAutoFileInputLimited(f, 4096, 8)))

	select {
	case <-done:
		got := received.Value()
		require.Equal(t, len(payload), len(got))
		require.Equal(t, payload, got)
	case <-time.After(10 * time.Second):
		t.Fatal("file transfer never completed")
	}
}
