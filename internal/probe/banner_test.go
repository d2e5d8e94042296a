package probe

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleServerFirstBanner(t *testing.T) {
	conn := dialBannerServer(t, func(c net.Conn) {
		_, _ = c.Write([]byte("SSH-2.0-OpenSSH_9.6\r\n"))
	})
	defer conn.Close()

	sampler := NewBannerSampler(2 * time.Second)
	banner := sampler.Sample(context.Background(), conn)
	assert.Equal(t, "SSH-2.0-OpenSSH_9.6", banner)
}

func TestSampleClientFirstHTTP(t *testing.T) {
	// Silent until a request arrives, like an HTTP server.
	conn := dialBannerServer(t, func(c net.Conn) {
		r := bufio.NewReader(c)
		line, err := r.ReadString('\n')
		if err != nil || !strings.HasPrefix(line, "HEAD ") {
			return
		}
		_, _ = c.Write([]byte("HTTP/1.0 200 OK\r\nServer: testd\r\n\r\n"))
	})
	defer conn.Close()

	sampler := NewBannerSampler(2 * time.Second)
	banner := sampler.Sample(context.Background(), conn)
	assert.Contains(t, banner, "HTTP/1.0 200 OK")
	assert.Contains(t, banner, "Server: testd")
}

func TestSampleSilentService(t *testing.T) {
	conn := dialBannerServer(t, func(c net.Conn) {
		// Accept and say nothing, ever.
		buf := make([]byte, 64)
		for {
			if _, err := c.Read(buf); err != nil {
				return
			}
		}
	})
	defer conn.Close()

	sampler := NewBannerSampler(500 * time.Millisecond)
	start := time.Now()
	banner := sampler.Sample(context.Background(), conn)
	assert.Empty(t, banner)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSampleNilConn(t *testing.T) {
	sampler := NewBannerSampler(time.Second)
	assert.Empty(t, sampler.Sample(context.Background(), nil))
}

func TestCleanBanner(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		expected string
	}{
		{
			name:     "printable passthrough",
			raw:      []byte("220 mail.example.com ESMTP"),
			expected: "220 mail.example.com ESMTP",
		},
		{
			name:     "crlf trimmed",
			raw:      []byte("SSH-2.0-OpenSSH_9.6\r\n"),
			expected: "SSH-2.0-OpenSSH_9.6",
		},
		{
			name:     "control bytes become spaces",
			raw:      []byte("a\x00b\x01c"),
			expected: "a b c",
		},
		{
			name:     "empty input",
			raw:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanBanner(tt.raw))
		})
	}
}

func TestCleanBannerCapped(t *testing.T) {
	raw := []byte(strings.Repeat("x", 4*bannerByteCap))
	assert.Len(t, CleanBanner(raw), bannerByteCap)
}

// dialBannerServer starts a one-shot server running handler and returns a
// connected client socket.
func dialBannerServer(t *testing.T, handler func(net.Conn)) net.Conn {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	return conn
}
