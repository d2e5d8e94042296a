package probe

import (
	"context"
	"net"
	"strings"
	"time"
)

const (
	// bannerByteCap bounds how much of a banner is kept.
	bannerByteCap = 1024
	// passiveWindow is how long we wait for a server-first banner before
	// nudging the service with an HTTP request.
	passiveWindow = 300 * time.Millisecond
)

// httpElicitRequest nudges client-first protocols (HTTP and friends) into
// talking when the passive window stays silent.
var httpElicitRequest = []byte("HEAD / HTTP/1.0\r\n\r\n")

// BannerSampler reads a service banner from an already-open TCP connection.
// Sampling is strictly best-effort: every failure yields an empty banner and
// never affects the port classification already made by the probe.
type BannerSampler struct {
	timeout time.Duration
}

// NewBannerSampler returns a sampler whose total read budget per connection
// is timeout.
func NewBannerSampler(timeout time.Duration) *BannerSampler {
	return &BannerSampler{timeout: timeout}
}

// Sample reads up to bannerByteCap bytes from conn. Server-first protocols
// (SSH, SMTP, FTP) volunteer a banner immediately; if nothing arrives within
// the passive window an HTTP HEAD request is sent to elicit one. The caller
// retains ownership of conn.
func (b *BannerSampler) Sample(ctx context.Context, conn net.Conn) string {
	if conn == nil {
		return ""
	}

	deadline := time.Now().Add(b.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	passive := time.Now().Add(passiveWindow)
	if passive.After(deadline) {
		passive = deadline
	}
	if err := conn.SetReadDeadline(passive); err != nil {
		return ""
	}

	buf := make([]byte, bannerByteCap)
	n, err := conn.Read(buf)
	if n > 0 {
		return CleanBanner(buf[:n])
	}
	if err != nil && !isTimeout(err) {
		return ""
	}

	// Silent service; likely client-first. Ask it over HTTP.
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return ""
	}
	if _, err := conn.Write(httpElicitRequest); err != nil {
		return ""
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return ""
	}
	n, _ = conn.Read(buf)
	if n > 0 {
		return CleanBanner(buf[:n])
	}
	return ""
}

// CleanBanner renders raw banner bytes printable: non-printable bytes become
// spaces and surrounding whitespace is trimmed. The result is capped at
// bannerByteCap bytes before cleaning.
func CleanBanner(raw []byte) string {
	if len(raw) > bannerByteCap {
		raw = raw[:bannerByteCap]
	}
	cleaned := make([]byte, len(raw))
	for i, c := range raw {
		if c < 0x20 || c > 0x7e {
			cleaned[i] = ' '
		} else {
			cleaned[i] = c
		}
	}
	return strings.TrimSpace(string(cleaned))
}
