// Package resolver issues the handful of DNS queries the reconciler needs:
// SOA probes against a single authority and an NS delegation walk from the
// root servers.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

// DefaultRootServers are the IANA root server IPv4 addresses.
var DefaultRootServers = []string{
	"198.41.0.4",     // a
	"199.9.14.201",   // b
	"192.33.4.12",    // c
	"199.7.91.13",    // d
	"192.203.230.10", // e
	"192.5.5.241",    // f
	"192.112.36.4",   // g
	"198.97.190.53",  // h
	"192.36.148.17",  // i
	"192.58.128.30",  // j
	"193.0.14.129",   // k
	"199.7.83.42",    // l
	"202.12.27.33",   // m
}

type Option func(*Resolver)

// WithPort sets the port appended to server addresses that carry none.
func WithPort(port string) Option {
	return func(r *Resolver) { r.port = port }
}

// WithRecursive sets the server used to resolve nameserver hosts that a
// referral returned without glue.
func WithRecursive(addr string) Option {
	return func(r *Resolver) { r.recursive = addr }
}

type Resolver struct {
	udp       *dns.Client
	tcp       *dns.Client
	timeout   time.Duration
	port      string
	recursive string
}

func New(timeout time.Duration, opts ...Option) *Resolver {
	if timeout <= 0 {
		timeout = domain.DefaultCallTimeout
	}
	r := &Resolver{
		udp:     &dns.Client{Net: "udp", Timeout: timeout},
		tcp:     &dns.Client{Net: "tcp", Timeout: timeout},
		timeout: timeout,
		port:    "53",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) addr(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), r.port)
}

func (r *Resolver) exchange(ctx context.Context, server, name string, qtype uint16, recurse bool) (*dns.Msg, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = recurse

	addr := r.addr(server)
	in, _, err := r.udp.ExchangeContext(ctx, m, addr)
	if err == nil && in.Truncated {
		in, _, err = r.tcp.ExchangeContext(ctx, m, addr)
	}
	if err != nil {
		return nil, classify(addr, name, err)
	}
	return in, nil
}

func classify(addr, name string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s @%s", domain.ErrNetworkTimeout, name, addr)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s @%s: %v", domain.ErrDNSQueryFailed, name, addr, err)
}

// SOA returns the SOA record server holds for zone. NXDOMAIN maps to
// ErrZoneNotFound. REFUSED, NOTAUTH and NOTZONE answers and an answer
// without an SOA mean the server does not hold the zone: they carry
// ErrZoneNotServed, the latter also ErrSerialUnavailable.
func (r *Resolver) SOA(ctx context.Context, server, zone string) (entity.SOA, error) {
	in, err := r.exchange(ctx, server, zone, dns.TypeSOA, true)
	if err != nil {
		return entity.SOA{}, err
	}
	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return entity.SOA{}, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zone)
	case dns.RcodeRefused, dns.RcodeNotAuth, dns.RcodeNotZone:
		return entity.SOA{}, fmt.Errorf("%w: %s: %s", domain.ErrZoneNotServed, zone, dns.RcodeToString[in.Rcode])
	default:
		return entity.SOA{}, fmt.Errorf("%w: %s: %s", domain.ErrDNSQueryFailed, zone, dns.RcodeToString[in.Rcode])
	}
	for _, rr := range in.Answer {
		if soa, ok := rr.(*dns.SOA); ok {
			return entity.SOA{
				PrimaryNS: soa.Ns,
				Contact:   soa.Mbox,
				Serial:    soa.Serial,
				Refresh:   soa.Refresh,
				Retry:     soa.Retry,
				Expire:    soa.Expire,
				Minimum:   soa.Minttl,
				TTL:       soa.Hdr.Ttl,
			}, nil
		}
	}
	return entity.SOA{}, fmt.Errorf("%w: %w: no SOA in answer for %s", domain.ErrSerialUnavailable, domain.ErrZoneNotServed, zone)
}

func (r *Resolver) Serial(ctx context.Context, server, zone string) (uint32, error) {
	soa, err := r.SOA(ctx, server, zone)
	if err != nil {
		return 0, err
	}
	return soa.Serial, nil
}

// LookupA returns the IPv4 addresses of host as answered by server.
func (r *Resolver) LookupA(ctx context.Context, server, host string) ([]string, error) {
	in, err := r.exchange(ctx, server, host, dns.TypeA, true)
	if err != nil {
		return nil, err
	}
	var addrs []string
	for _, rr := range in.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}
	return addrs, nil
}
