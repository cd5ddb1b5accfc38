//go:build unix

package transport

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkamperman/netkit/ioelem"
	"github.com/fkamperman/netkit/reactor"
)

// TestLengthPrefixedFrameParsing mirrors a length-prefixed frame protocol: a
// 4-byte big-endian length collector is followed by a ByteArrayCollector
// sized to match, and every decoded frame is handed to onMessage.
func TestLengthPrefixedFrameParsing(t *testing.T) {
	r, err := reactor.NewEPoll()
	require.NoError(t, err)
	go func() { _ = r.Run() }()
	defer r.Close()

	frames := make(chan string, 8)

	initial, _ := newFrameCollector()
	eh := NewElementHandler(initial, func() (ioelem.Collector, error) {
		return newFrameCollector()
	}, func(c ioelem.Collector) {
		frames <- string(c.(*frameCollector).body.Value())
	})

	srv, err := NewServer(r, "127.0.0.1:0", 0, 16, func(conn *SocketTransport, _ string) Handler {
		return eh
	})
	require.NoError(t, err)
	defer srv.Close()
	port := srv.listener.localPort(t)

	client, err := NewSocketTransport(r, WithHandler(&BaseHandler{}))
	require.NoError(t, err)
	require.NoError(t, client.Connect(addrWithPort("127.0.0.1", port), 0))
	require.Eventually(t, func() bool { return client.State() == "connected" }, 2*time.Second, 10*time.Millisecond)

	msg := "hello, frame"
	frame := make([]byte, 4+len(msg))
	binary.BigEndian.PutUint32(frame, uint32(len(msg)))
	copy(frame[4:], msg)
	_, err = client.Send(frame)
	require.NoError(t, err)

	select {
	case got := <-frames:
		assert.Equal(t, msg, got)
	case <-time.After(2 * time.Second):
		t.Fatal("frame never parsed")
	}
}

// frameCollector decodes a 4-byte big-endian length prefix followed by
// exactly that many body bytes.
type frameCollector struct {
	length *ioelem.SingleStructValueCollector[uint32]
	body   *ioelem.ByteArrayCollector
	inBody bool
}

func newFrameCollector() (ioelem.Collector, error) {
	return &frameCollector{length: ioelem.NewSingleStructValueCollector[uint32](binary.BigEndian)}, nil
}

func (f *frameCollector) Init() error { return f.length.Init() }

func (f *frameCollector) Tick(data []byte) (int, bool, error) {
	total := 0
	if !f.inBody {
		n, done, err := f.length.Tick(data)
		total += n
		data = data[n:]
		if err != nil || !done {
			return total, false, err
		}
		f.body = ioelem.NewByteArrayCollector(int(f.length.Value()))
		if err := f.body.Init(); err != nil {
			return total, false, err
		}
		f.inBody = true
	}
	n, done, err := f.body.Tick(data)
	total += n
	return total, done, err
}

func (f *frameCollector) Close() error { return nil }
