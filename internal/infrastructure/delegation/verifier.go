// Package delegation checks that a domain is still delegated to the hosting
// server's nameservers from the outside world's point of view.
package delegation

import (
	"context"

	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
	"github.com/lite-lake/dnssync/internal/infrastructure/resolver"
)

var _ contract.DelegationVerifier = (*Verifier)(nil)

type Tracer interface {
	Trace(ctx context.Context, roots []string, name string) ([]resolver.Hop, []string)
}

type RegistryLookup interface {
	Check(ctx context.Context, name string) Registration
}

type Option func(*Verifier)

// WithWHOIS adds a registry check; both it and the NS trace must pass.
func WithWHOIS(w RegistryLookup) Option {
	return func(v *Verifier) { v.whois = w }
}

type Verifier struct {
	tracer Tracer
	roots  []string
	whois  RegistryLookup
}

func NewVerifier(tracer Tracer, roots []string, opts ...Option) *Verifier {
	if len(roots) == 0 {
		roots = resolver.DefaultRootServers
	}
	v := &Verifier{tracer: tracer, roots: roots}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Verifier) Verify(ctx context.Context, name string) contract.DelegationResult {
	path, errs := v.tracer.Trace(ctx, v.roots, name)
	res := contract.DelegationResult{Errors: errs}
	for _, hop := range path {
		res.Path = append(res.Path, hop.String())
	}
	res.Verified = len(path) > 0 && len(errs) == 0

	if v.whois != nil {
		reg := v.whois.Check(ctx, name)
		res.Errors = append(res.Errors, reg.Errors...)
		res.Verified = res.Verified && reg.Verified
	}

	logger.FromContext(ctx).Debug("delegation verified",
		"domain", name,
		"verified", res.Verified,
		"path", res.Path,
		"errors", len(res.Errors),
	)
	return res
}
