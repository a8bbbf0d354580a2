package service

import (
	"context"
	"fmt"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

const dryRunVerb = "[dry-run] would update"

// DriftCorrector converges a zone by writing a fresh SOA to the local
// authority. The remote authority is never written here.
type DriftCorrector struct {
	local contract.LocalAuthority
}

func NewDriftCorrector(local contract.LocalAuthority) *DriftCorrector {
	return &DriftCorrector{local: local}
}

// Correct writes max(local, remote)+1 as the new serial. Dry-run performs
// every step except the write and reload, and reports the same description
// under a "would" verb.
func (c *DriftCorrector) Correct(ctx context.Context, name string, localSerial, remoteSerial int64, dryRun bool) (valueobject.CorrectionResult, error) {
	log := logger.FromContext(ctx).With("domain", name, "dry_run", dryRun)
	res := valueobject.CorrectionResult{Domain: name, DryRun: dryRun}

	fail := func(err error) (valueobject.CorrectionResult, error) {
		res.Message = fmt.Sprintf("correction failed for %s: %v", name, err)
		log.Error("correction failed", "error", err)
		return res, domain.WrapDomain(name, err)
	}

	local, err := ToSerial(localSerial)
	if err != nil {
		return fail(err)
	}
	remote, err := ToSerial(remoteSerial)
	if err != nil {
		return fail(err)
	}
	res.LocalSerial, res.RemoteSerial = local, remote

	next, err := NextSerial(local, remote)
	if err != nil {
		return fail(err)
	}
	res.NewSerial = next

	ok, err := c.local.HasZone(ctx, name)
	if err != nil {
		return fail(err)
	}
	if !ok {
		return fail(domain.ErrZoneFileMissing)
	}

	tmpl, err := c.local.GetSOA(ctx, name)
	if err != nil {
		return fail(domain.WrapOp("read SOA template", err))
	}
	soa := tmpl.WithPolicy(next)
	res.Record = soa.RecordLine(name)

	if dryRun {
		res.Success = true
		res.Message = Describe(dryRunVerb, name, local, remote, next, res.Record)
		log.Info(res.Message)
		return res, nil
	}

	if err := c.local.WriteSOA(ctx, name, soa); err != nil {
		return fail(domain.WrapOp("write SOA", err))
	}
	res.Success = true
	res.Message = Describe("updated", name, local, remote, next, res.Record)
	log.Info(res.Message)

	if err := c.local.Reload(ctx, name); err != nil {
		log.Warn("zone reload failed, write kept", "error", err)
	} else {
		res.Reloaded = true
	}
	return res, nil
}

// Describe formats a correction so dry-run and write output differ only in
// the verb.
func Describe(verb, name string, local, remote, next uint32, record string) string {
	return fmt.Sprintf("%s SOA serial for %s to %d (local=%d, remote=%d): %s", verb, name, next, local, remote, record)
}
