package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

// connectStrategy performs full TCP handshake probes.
type connectStrategy struct {
	target   string
	timeout  time.Duration
	keepOpen bool
	dialer   net.Dialer
}

func newConnectStrategy(opts Options) *connectStrategy {
	return &connectStrategy{
		target:   opts.Target,
		timeout:  opts.Timeout,
		keepOpen: opts.KeepOpen,
	}
}

// Mode implements Strategy.
func (s *connectStrategy) Mode() Mode { return ModeConnect }

// Close implements Strategy. Connect probes hold no shared resources.
func (s *connectStrategy) Close() error { return nil }

// Probe dials the port with a per-probe timeout context and classifies the
// outcome: success is open, a reset is closed, silence is filtered.
func (s *connectStrategy) Probe(ctx context.Context, port uint16) Result {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	addr := net.JoinHostPort(s.target, strconv.Itoa(int(port)))
	start := time.Now()

	conn, err := s.dialer.DialContext(probeCtx, "tcp", addr)
	rtt := time.Since(start)

	if err == nil {
		res := Result{Outcome: OutcomeConnected, State: StateOpen, RTT: rtt}
		if s.keepOpen {
			res.Conn = conn
		} else {
			_ = conn.Close()
		}
		return res
	}

	return classifyConnectErr(err, rtt)
}

// classifyConnectErr maps a dial error onto the connect-mode outcome set.
func classifyConnectErr(err error, rtt time.Duration) Result {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return Result{
			Outcome: OutcomeRefused,
			State:   StateClosed,
			Reason:  "connection refused",
			RTT:     rtt,
		}
	case isTimeout(err):
		return Result{
			Outcome: OutcomeTimedOut,
			State:   StateFiltered,
			Reason:  "timeout",
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

// isTimeout reports whether err is a deadline or context timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
