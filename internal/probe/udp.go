package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/miekg/dns"
)

const udpReadBuffer = 4096

// udpStrategy sends a UDP datagram per port and classifies by the response.
// UDP has no reliable negative signal: silence is reported as open|filtered,
// never collapsed into open or closed.
type udpStrategy struct {
	target  string
	timeout time.Duration
}

func newUDPStrategy(opts Options) *udpStrategy {
	return &udpStrategy{
		target:  opts.Target,
		timeout: opts.Timeout,
	}
}

// Mode implements Strategy.
func (s *udpStrategy) Mode() Mode { return ModeUDP }

// Close implements Strategy.
func (s *udpStrategy) Close() error { return nil }

// Probe sends a protocol-appropriate payload and waits for a response.
// An application response is open, an ICMP port unreachable (surfaced by the
// kernel as a refused error on the connected socket) is closed, and silence
// within the timeout is open|filtered.
func (s *udpStrategy) Probe(ctx context.Context, port uint16) Result {
	addr := net.JoinHostPort(s.target, strconv.Itoa(int(port)))

	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return Result{Outcome: OutcomeFailed, State: StateError, Reason: err.Error()}
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return Result{Outcome: OutcomeFailed, State: StateError, Reason: err.Error()}
	}
	defer conn.Close()

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Result{Outcome: OutcomeFailed, State: StateError, Reason: err.Error()}
	}

	start := time.Now()
	if _, err := conn.Write(udpPayload(port)); err != nil {
		return classifyUDPErr(err)
	}

	buf := make([]byte, udpReadBuffer)
	n, err := conn.Read(buf)
	rtt := time.Since(start)

	if err == nil && n > 0 {
		return Result{
			Outcome: OutcomeResponded,
			State:   StateOpen,
			Payload: buf[:n],
			RTT:     rtt,
		}
	}

	if err != nil {
		return classifyUDPErr(err)
	}

	// Zero-byte datagram back still proves a listener.
	return Result{Outcome: OutcomeResponded, State: StateOpen, RTT: rtt}
}

// classifyUDPErr maps a socket error onto the udp-probe outcome set.
func classifyUDPErr(err error) Result {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		// ICMP port unreachable surfaced on the connected socket.
		return Result{
			Outcome: OutcomeRefused,
			State:   StateClosed,
			Reason:  "port unreachable",
		}
	case isTimeout(err):
		return Result{
			Outcome: OutcomeTimedOut,
			State:   StateOpenFiltered,
			Reason:  "no response",
		}
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return Result{
			Outcome: OutcomeUnreachable,
			State:   StateFiltered,
			Reason:  "host unreachable",
		}
	default:
		return Result{
			Outcome: OutcomeFailed,
			State:   StateError,
			Reason:  err.Error(),
		}
	}
}

// udpPayload returns a probe payload likely to elicit a response from the
// service conventionally bound to the port. Unknown ports get an empty
// datagram, which is enough to trigger an ICMP port unreachable when closed.
func udpPayload(port uint16) []byte {
	switch port {
	case 53:
		m := new(dns.Msg)
		m.SetQuestion(".", dns.TypeNS)
		if payload, err := m.Pack(); err == nil {
			return payload
		}
		return nil
	case 123:
		// Minimal NTPv4 client request.
		payload := make([]byte, 48)
		payload[0] = 0x23
		return payload
	default:
		return nil
	}
}
