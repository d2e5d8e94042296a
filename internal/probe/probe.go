// Package probe implements the per-port network interactions for nexscan:
// the connect, half-open, and udp probe strategies plus the banner sampler.
// A strategy classifies exactly one port per call and never aborts the scan;
// anything it cannot recognize is reported as an error-state result.
package probe

import (
	"context"
	"net"
	"time"

	scanerrors "github.com/nexscan/nexscan/internal/errors"
)

// Mode selects the wire behavior used to probe a port.
type Mode string

const (
	// ModeConnect performs a full TCP handshake.
	ModeConnect Mode = "connect"
	// ModeHalfOpen sends a raw SYN without completing the handshake.
	// Requires raw socket privileges, validated once at strategy creation.
	ModeHalfOpen Mode = "half-open"
	// ModeUDP sends a UDP datagram and classifies by response or ICMP error.
	ModeUDP Mode = "udp"
)

// ParseMode converts a scan-type string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "connect", "tcp":
		return ModeConnect, nil
	case "half-open", "syn":
		return ModeHalfOpen, nil
	case "udp", "udp-probe":
		return ModeUDP, nil
	default:
		return "", scanerrors.ErrConfigInvalid("scan_type", s)
	}
}

// Protocol returns the transport protocol the mode probes over.
func (m Mode) Protocol() string {
	if m == ModeUDP {
		return "udp"
	}
	return "tcp"
}

// Outcome is the raw wire-level result of a single probe.
type Outcome int

const (
	// OutcomeConnected means the handshake completed (or SYN-ACK was seen).
	OutcomeConnected Outcome = iota
	// OutcomeRefused means the peer answered with a reset or ICMP port unreachable.
	OutcomeRefused
	// OutcomeTimedOut means no response arrived within the probe timeout.
	OutcomeTimedOut
	// OutcomeUnreachable means an ICMP host/network unreachable was surfaced.
	OutcomeUnreachable
	// OutcomeResponded means an application-level response arrived (UDP).
	OutcomeResponded
	// OutcomeFailed means the probe failed for an unrecognized reason.
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeConnected:
		return "connected"
	case OutcomeRefused:
		return "refused"
	case OutcomeTimedOut:
		return "timed-out"
	case OutcomeUnreachable:
		return "icmp-unreachable"
	case OutcomeResponded:
		return "responded"
	default:
		return "error"
	}
}

// State is the per-port classification derived from a probe outcome.
// These are exactly the values consumers of scan results may observe.
type State string

const (
	StateOpen         State = "open"
	StateClosed       State = "closed"
	StateFiltered     State = "filtered"
	StateOpenFiltered State = "open|filtered"
	StateError        State = "error"
)

// Result describes the classified outcome of probing one port.
type Result struct {
	// Outcome is the raw wire-level observation.
	Outcome Outcome
	// State is the port classification derived from Outcome by the strategy.
	State State
	// Reason is a short human-readable cause, e.g. "connection refused".
	Reason string
	// Conn is the still-open TCP connection for banner sampling. Only set in
	// connect mode when the strategy was created with KeepOpen; the caller
	// owns closing it.
	Conn net.Conn
	// Payload is the raw application response, if any (UDP probes).
	Payload []byte
	// RTT is the measured round-trip time for answered probes.
	RTT time.Duration
}

// Strategy probes a single port of the configured target. Implementations
// are safe for concurrent use by multiple workers.
type Strategy interface {
	// Mode returns the scan mode the strategy implements.
	Mode() Mode
	// Probe performs one network interaction against the given port and
	// returns the classified result. It never returns an error; failures
	// are expressed as StateError results.
	Probe(ctx context.Context, port uint16) Result
	// Close releases any resources held by the strategy.
	Close() error
}

// Options configures a probe strategy.
type Options struct {
	// Target is the resolved IP address to probe.
	Target string
	// Timeout bounds each individual probe.
	Timeout time.Duration
	// KeepOpen leaves successful connect-mode connections open so the
	// banner sampler can read from them.
	KeepOpen bool
}

// NewStrategy builds the strategy for a scan mode. For ModeHalfOpen the
// privilege requirement is validated here, once, so insufficient privilege
// fails the scan before any worker starts instead of flooding per-port
// error results.
func NewStrategy(mode Mode, opts Options) (Strategy, error) {
	if net.ParseIP(opts.Target) == nil {
		return nil, scanerrors.ErrInvalidTarget(opts.Target)
	}

	switch mode {
	case ModeConnect:
		return newConnectStrategy(opts), nil
	case ModeHalfOpen:
		return newHalfOpenStrategy(opts)
	case ModeUDP:
		return newUDPStrategy(opts), nil
	default:
		return nil, scanerrors.ErrConfigInvalid("scan_type", string(mode))
	}
}
