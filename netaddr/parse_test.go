package netaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIPv4(t *testing.T) {
	host, port, err := ParseIPv4("example.com", 80)
	require.NoError(t, err)
	assert.Equal(t, "example.com", host)
	assert.Equal(t, 80, port)

	host, port, err = ParseIPv4("127.0.0.1:9090", -1)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 9090, port)

	_, _, err = ParseIPv4("a:b:c", -1)
	assert.Error(t, err)

	_, _, err = ParseIPv4("host:notaport", -1)
	assert.Error(t, err)
}

func TestParseIPv6(t *testing.T) {
	host, port, err := ParseIPv6("::1", 80)
	require.NoError(t, err)
	assert.Equal(t, "::1", host)
	assert.Equal(t, 80, port)

	host, port, err = ParseIPv6("[::1]:443", -1)
	require.NoError(t, err)
	assert.Equal(t, "::1", host)
	assert.Equal(t, 443, port)

	host, port, err = ParseIPv6("[fe80::1]", 53)
	require.NoError(t, err)
	assert.Equal(t, "fe80::1", host)
	assert.Equal(t, 53, port)

	_, _, err = ParseIPv6("[fe80::1", 53)
	assert.Error(t, err)
}

func TestParseIPDispatch(t *testing.T) {
	host, port, err := ParseIP("127.0.0.1:8080", -1)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 8080, port)

	host, port, err = ParseIP("[::1]:8080", -1)
	require.NoError(t, err)
	assert.Equal(t, "::1", host)
	assert.Equal(t, 8080, port)

	host, port, err = ParseIP("::1", -1)
	require.NoError(t, err)
	assert.Equal(t, "::1", host)
	assert.Equal(t, -1, port)
}
