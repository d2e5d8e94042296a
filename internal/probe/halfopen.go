//go:build unix

package probe

import (
	"context"
	"encoding/binary"
	"math/rand"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"

	scanerrors "github.com/nexscan/nexscan/internal/errors"
)

const (
	tcpHeaderLen = 20
	readBufSize  = 1500

	flagSYN = 0x02
	flagRST = 0x04
	flagACK = 0x10

	ephemeralBase = 32768
	ephemeralSpan = 28232

	synWindowSize = 65535
)

// halfOpenStrategy sends raw TCP SYN segments without completing the
// handshake. The kernel answers any SYN-ACK with a reset on our behalf since
// no local socket is in SYN-SENT state, which is exactly the half-open
// behavior wanted.
type halfOpenStrategy struct {
	target  string
	dstIP   net.IP
	srcIP   net.IP
	timeout time.Duration
}

// newHalfOpenStrategy validates the raw-socket privilege requirement once,
// before any worker runs. A process that cannot open an ip4:tcp socket gets
// a single fatal permission error instead of one error result per port.
func newHalfOpenStrategy(opts Options) (Strategy, error) {
	pc, err := net.ListenPacket("ip4:tcp", "0.0.0.0")
	if err != nil {
		return nil, scanerrors.ErrPermissionRequired("half-open", err)
	}
	_ = pc.Close()

	dstIP := net.ParseIP(opts.Target).To4()
	if dstIP == nil {
		return nil, scanerrors.ErrInvalidTarget(opts.Target)
	}

	return &halfOpenStrategy{
		target:  opts.Target,
		dstIP:   dstIP,
		srcIP:   localSourceIP(opts.Target),
		timeout: opts.Timeout,
	}, nil
}

// Mode implements Strategy.
func (s *halfOpenStrategy) Mode() Mode { return ModeHalfOpen }

// Close implements Strategy. Raw sockets are per-probe, nothing shared.
func (s *halfOpenStrategy) Close() error { return nil }

// Probe sends one SYN and waits for a SYN-ACK (open) or RST (closed);
// silence within the timeout is filtered. Each probe uses its own raw
// socket so concurrent workers never steal each other's responses; replies
// are matched on the ephemeral source port and acknowledged sequence.
func (s *halfOpenStrategy) Probe(ctx context.Context, port uint16) Result {
	pc, err := net.ListenPacket("ip4:tcp", s.srcIP.String())
	if err != nil {
		return Result{Outcome: OutcomeFailed, State: StateError, Reason: err.Error()}
	}
	defer pc.Close()

	raw, err := ipv4.NewRawConn(pc)
	if err != nil {
		return Result{Outcome: OutcomeFailed, State: StateError, Reason: err.Error()}
	}

	srcPort := uint16(ephemeralBase + rand.Intn(ephemeralSpan))
	seq := rand.Uint32()
	seg := buildSYNSegment(s.srcIP, s.dstIP, srcPort, port, seq)

	start := time.Now()
	if _, err := pc.WriteTo(seg, &net.IPAddr{IP: s.dstIP}); err != nil {
		return classifyConnectErr(err, time.Since(start))
	}

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	buf := make([]byte, readBufSize)
	for {
		if ctx.Err() != nil {
			return Result{Outcome: OutcomeTimedOut, State: StateFiltered, Reason: "canceled"}
		}
		if err := raw.SetReadDeadline(deadline); err != nil {
			return Result{Outcome: OutcomeFailed, State: StateError, Reason: err.Error()}
		}

		hdr, payload, _, err := raw.ReadFrom(buf)
		if err != nil {
			if isTimeout(err) {
				return Result{Outcome: OutcomeTimedOut, State: StateFiltered, Reason: "no response"}
			}
			return Result{Outcome: OutcomeFailed, State: StateError, Reason: err.Error()}
		}

		if hdr == nil || len(payload) < tcpHeaderLen || !hdr.Src.Equal(s.dstIP) {
			continue
		}

		replySrc := binary.BigEndian.Uint16(payload[0:2])
		replyDst := binary.BigEndian.Uint16(payload[2:4])
		if replySrc != port || replyDst != srcPort {
			continue
		}

		flags := payload[13]
		if flags&flagRST != 0 {
			return Result{
				Outcome: OutcomeRefused,
				State:   StateClosed,
				Reason:  "connection reset",
				RTT:     time.Since(start),
			}
		}
		if flags&flagSYN != 0 && flags&flagACK != 0 {
			if ack := binary.BigEndian.Uint32(payload[8:12]); ack == seq+1 {
				return Result{
					Outcome: OutcomeConnected,
					State:   StateOpen,
					RTT:     time.Since(start),
				}
			}
		}
	}
}

// buildSYNSegment crafts a 20-byte TCP header with the SYN flag set and a
// valid pseudo-header checksum.
func buildSYNSegment(src, dst net.IP, srcPort, dstPort uint16, seq uint32) []byte {
	seg := make([]byte, tcpHeaderLen)
	binary.BigEndian.PutUint16(seg[0:2], srcPort)
	binary.BigEndian.PutUint16(seg[2:4], dstPort)
	binary.BigEndian.PutUint32(seg[4:8], seq)
	seg[12] = (tcpHeaderLen / 4) << 4
	seg[13] = flagSYN
	binary.BigEndian.PutUint16(seg[14:16], synWindowSize)
	binary.BigEndian.PutUint16(seg[16:18], tcpChecksum(src, dst, seg))
	return seg
}

// tcpChecksum computes the TCP checksum over the IPv4 pseudo-header and
// segment. The checksum field must be zero when called.
func tcpChecksum(src, dst net.IP, seg []byte) uint16 {
	pseudo := make([]byte, 12+len(seg))
	copy(pseudo[0:4], src.To4())
	copy(pseudo[4:8], dst.To4())
	pseudo[9] = 6 // TCP protocol number
	binary.BigEndian.PutUint16(pseudo[10:12], uint16(len(seg)))
	copy(pseudo[12:], seg)

	var sum uint32
	for i := 0; i+1 < len(pseudo); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(pseudo[i : i+2]))
	}
	if len(pseudo)%2 == 1 {
		sum += uint32(pseudo[len(pseudo)-1]) << 8
	}
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

// localSourceIP discovers the local address the kernel would route toward
// the target. Falls back to the wildcard address when route discovery fails.
func localSourceIP(target string) net.IP {
	conn, err := net.Dial("udp4", net.JoinHostPort(target, strconv.Itoa(53)))
	if err != nil {
		return net.IPv4zero
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.To4()
	}
	return net.IPv4zero
}
