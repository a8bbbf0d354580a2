package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// Hop is one delegation step: the zone and the servers it was delegated to.
type Hop struct {
	Zone        string
	Nameservers []string
	Addrs       []string
}

func (h Hop) String() string {
	return fmt.Sprintf("%s -> %s", h.Zone, strings.Join(h.Nameservers, ","))
}

// Trace walks the delegation chain for name from roots down, one label at a
// time. The walk stops at the first zone no server delegates; that zone and
// the per-server failures are reported in errs.
func (r *Resolver) Trace(ctx context.Context, roots []string, name string) (path []Hop, errs []string) {
	labels := dns.SplitDomainName(strings.ToLower(dns.Fqdn(name)))
	if len(labels) == 0 {
		return nil, []string{fmt.Sprintf("invalid domain %q", name)}
	}
	servers := roots

	for i := len(labels) - 1; i >= 0; i-- {
		zone := dns.Fqdn(strings.Join(labels[i:], "."))
		var (
			hop      Hop
			found    bool
			failures []string
		)
		for _, server := range servers {
			if err := ctx.Err(); err != nil {
				return path, append(errs, err.Error())
			}
			h, ok, err := r.delegation(ctx, server, zone)
			if err != nil {
				failures = append(failures, fmt.Sprintf("error tracing %s @%s: %v", zone, server, err))
				continue
			}
			if ok {
				hop, found = h, true
				break
			}
		}
		if !found {
			errs = append(errs, failures...)
			return path, append(errs, fmt.Sprintf("no delegation found for %s", zone))
		}
		path = append(path, hop)
		if len(hop.Addrs) == 0 {
			if i > 0 {
				return path, append(errs, fmt.Sprintf("no reachable nameservers for %s", zone))
			}
			break
		}
		servers = hop.Addrs
	}
	return path, errs
}

// delegation asks server for the NS set of zone, accepting both referrals
// (authority section) and authoritative answers.
func (r *Resolver) delegation(ctx context.Context, server, zone string) (Hop, bool, error) {
	in, err := r.exchange(ctx, server, zone, dns.TypeNS, false)
	if err != nil {
		return Hop{}, false, err
	}
	if in.Rcode != dns.RcodeSuccess {
		return Hop{}, false, nil
	}

	hop := Hop{Zone: zone}
	for _, section := range [][]dns.RR{in.Answer, in.Ns} {
		for _, rr := range section {
			ns, ok := rr.(*dns.NS)
			if ok && strings.EqualFold(ns.Hdr.Name, zone) {
				hop.Nameservers = append(hop.Nameservers, strings.ToLower(ns.Ns))
			}
		}
		if len(hop.Nameservers) > 0 {
			break
		}
	}
	if len(hop.Nameservers) == 0 {
		return Hop{}, false, nil
	}

	glue := make(map[string][]string)
	for _, rr := range in.Extra {
		if a, ok := rr.(*dns.A); ok {
			host := strings.ToLower(a.Hdr.Name)
			glue[host] = append(glue[host], a.A.String())
		}
	}
	for _, host := range hop.Nameservers {
		addrs := glue[host]
		if len(addrs) == 0 {
			lookup := r.recursive
			if lookup == "" {
				lookup = server
			}
			addrs, _ = r.LookupA(ctx, lookup, host)
		}
		hop.Addrs = append(hop.Addrs, addrs...)
	}
	return hop, true, nil
}
