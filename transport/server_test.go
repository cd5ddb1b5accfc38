//go:build unix

package transport

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fkamperman/netkit/reactor"
)

func TestAcceptRateLimitClosesOverLimitConnections(t *testing.T) {
	r, err := reactor.NewEPoll()
	require.NoError(t, err)
	go func() { _ = r.Run() }()
	defer r.Close()

	var accepted int32
	srv, err := NewServer(r, "127.0.0.1:0", 0, 16, func(conn *SocketTransport, _ string) Handler {
		atomic.AddInt32(&accepted, 1)
		return &BaseHandler{}
	}, WithAcceptRateLimit(map[time.Duration]int{time.Minute: 1}))
	require.NoError(t, err)
	defer srv.Close()
	port := srv.listener.localPort(t)

	for i := 0; i < 3; i++ {
		c, err := NewSocketTransport(r, WithHandler(&BaseHandler{}))
		require.NoError(t, err)
		require.NoError(t, c.Connect(addrWithPort("127.0.0.1", port), 0))
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&accepted) == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&accepted))
}
