package service

import (
	"context"
	"fmt"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

type DriftDetector struct {
	local    contract.LocalAuthority
	remote   contract.RemoteAuthority
	maxDrift uint32
}

func NewDriftDetector(local contract.LocalAuthority, remote contract.RemoteAuthority, maxDrift uint32) *DriftDetector {
	return &DriftDetector{local: local, remote: remote, maxDrift: maxDrift}
}

func (d *DriftDetector) MaxDrift() uint32 { return d.maxDrift }

// CheckSync compares both authorities' serials for name. Failures are
// reported in the result, never returned.
func (d *DriftDetector) CheckSync(ctx context.Context, name string) valueobject.ReconciliationResult {
	log := logger.FromContext(ctx).With("domain", name)
	res := valueobject.ReconciliationResult{Domain: name, Outcome: valueobject.OutcomeUnknown}

	local, err := d.local.GetSerial(ctx, name)
	if err != nil {
		res.Err = domain.WrapOp("local serial", err)
		res.Detail = fmt.Sprintf("local serial unavailable: %v", err)
		log.Warn("local serial unavailable", "error", err)
		return res
	}
	res.LocalSerial, res.LocalKnown = local, true

	lookup, err := d.remote.GetZone(ctx, name)
	if err != nil {
		res.Err = domain.WrapOp("remote serial", err)
		res.Detail = fmt.Sprintf("remote serial unavailable: %v", err)
		log.Warn("remote serial unavailable", "error", err)
		return res
	}
	if lookup.NotFound {
		res.Err = fmt.Errorf("%w: %s on %s", domain.ErrZoneNotFound, name, d.remote.Name())
		res.Detail = "remote zone not found"
		log.Warn("remote zone not found", "remote", d.remote.Name())
		return res
	}
	res.RemoteSerial, res.RemoteKnown = lookup.Zone.Serial, true

	res.Drift = Drift(res.LocalSerial, res.RemoteSerial)
	res.Outcome = Classify(res.Drift, d.maxDrift)
	switch res.Outcome {
	case valueobject.OutcomeInSync:
		res.Detail = "serials match"
		log.Debug("in sync", "serial", local)
	case valueobject.OutcomeDriftWarning:
		res.Detail = fmt.Sprintf("drift %d within threshold %d", res.Drift, d.maxDrift)
		log.Warn("drift within threshold", "local", res.LocalSerial, "remote", res.RemoteSerial, "drift", res.Drift)
	default:
		res.Detail = fmt.Sprintf("drift %d exceeds threshold %d", res.Drift, d.maxDrift)
		log.Error("critical drift", "local", res.LocalSerial, "remote", res.RemoteSerial, "drift", res.Drift)
	}
	return res
}
