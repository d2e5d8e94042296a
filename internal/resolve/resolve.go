// Package resolve turns scan targets into IP addresses. Literal IPs pass
// through untouched; hostnames are resolved over DNS, either against an
// explicitly configured server or through the system resolver.
package resolve

import (
	"context"
	"net"
	"time"

	"github.com/miekg/dns"

	scanerrors "github.com/nexscan/nexscan/internal/errors"
	"github.com/nexscan/nexscan/internal/logging"
)

const defaultTimeout = 5 * time.Second

// Resolver resolves hostnames to IPv4 addresses and optionally back again.
type Resolver struct {
	// Server is the DNS server to query, host:port. Empty selects the
	// system resolver.
	Server  string
	Timeout time.Duration

	client *dns.Client
	logger *logging.Logger
}

// New builds a resolver. A zero timeout falls back to the default.
func New(server string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Resolver{
		Server:  server,
		Timeout: timeout,
		client:  &dns.Client{Timeout: timeout},
		logger:  logging.Default().WithComponent("resolve"),
	}
}

// Target resolves a scan target to an IPv4 address. Literal IP input is
// returned verbatim; hostname input returns the first A record.
func (r *Resolver) Target(ctx context.Context, target string) (string, error) {
	if ip := net.ParseIP(target); ip != nil {
		return target, nil
	}

	ip, err := r.lookupA(ctx, target)
	if err != nil {
		r.logger.ErrorResolve("resolution failed", target, err)
		return "", err
	}
	r.logger.InfoResolve("resolved target", target, "ip", ip)
	return ip, nil
}

// lookupA queries the configured server directly, or defers to the system
// resolver when no server is set.
func (r *Resolver) lookupA(ctx context.Context, host string) (string, error) {
	if r.Server == "" {
		return r.lookupSystem(ctx, host)
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	m.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, m, r.Server)
	if err != nil {
		return "", scanerrors.WrapResolveError("dns query failed", host, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", scanerrors.NewResolveError(
			"dns query returned "+dns.RcodeToString[resp.Rcode], host)
	}
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), nil
		}
	}
	return "", scanerrors.NewResolveError("no A record", host)
}

func (r *Resolver) lookupSystem(ctx context.Context, host string) (string, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupIP(lookupCtx, "ip4", host)
	if err != nil {
		return "", scanerrors.WrapResolveError("hostname lookup failed", host, err)
	}
	if len(addrs) == 0 {
		return "", scanerrors.NewResolveError("no addresses found", host)
	}
	return addrs[0].String(), nil
}

// Reverse finds the PTR name for an IP. Failures are soft: reverse lookup is
// cosmetic, so an empty string comes back instead of an error.
func (r *Resolver) Reverse(ctx context.Context, ip string) string {
	if r.Server == "" {
		lookupCtx, cancel := context.WithTimeout(ctx, r.Timeout)
		defer cancel()
		names, err := net.DefaultResolver.LookupAddr(lookupCtx, ip)
		if err != nil || len(names) == 0 {
			return ""
		}
		return trimDot(names[0])
	}

	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return ""
	}
	m := new(dns.Msg)
	m.SetQuestion(arpa, dns.TypePTR)
	m.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, m, r.Server)
	if err != nil || resp.Rcode != dns.RcodeSuccess {
		return ""
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return trimDot(ptr.Ptr)
		}
	}
	return ""
}

func trimDot(name string) string {
	if n := len(name); n > 0 && name[n-1] == '.' {
		return name[:n-1]
	}
	return name
}
