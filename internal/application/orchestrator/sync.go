package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/lite-lake/dnssync/internal/application/scheduler"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

type SyncReport struct {
	Transitions Transitions
	Summary     *valueobject.RunSummary
	Cleanup     CleanupReport
}

// Sync is one bulk run. Every state change of the run, from affiliation
// through reconciliation to cleanup, is computed on a single loaded
// snapshot and saved once. A cancelled run saves nothing.
func (o *Orchestrator) Sync(ctx context.Context, dryRun bool) (*SyncReport, error) {
	report := &SyncReport{}
	err := logger.TimedOperation(ctx, "sync", func() error {
		log := logger.FromContext(ctx)
		now := o.now()

		domains, err := o.store.Load(ctx)
		if err != nil {
			return domain.WrapOp("load tracking", err)
		}
		affiliated, err := o.affiliation.ListAffiliatedDomains(ctx)
		if err != nil {
			return domain.WrapOp("list affiliated domains", err)
		}

		report.Transitions = ApplyAffiliation(domains, affiliated, o.settings.Excluded, now)
		t := report.Transitions
		log.Info("affiliation applied",
			"affiliated", len(affiliated),
			"added", len(t.Added),
			"deactivated", len(t.Deactivated),
			"reactivated", len(t.Reactivated),
			"forgotten", len(t.Forgotten),
		)

		batch := scheduler.SelectBatch(domains, o.settings.MaxDomains, o.settings.Distribution)
		report.Summary, err = o.scheduler.Reconcile(ctx, domains, batch, dryRun, now)
		if err != nil {
			return err
		}

		report.Cleanup = o.cleanup(ctx, domains, dryRun, now)
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := o.save(ctx, domains); err != nil {
			return err
		}
		o.scheduler.Report(ctx, report.Summary)
		return nil
	})
	return report, err
}

// ProcessDomain reconciles one named domain outside the scheduler's
// quotas. A domain whose delegation cannot be verified is recorded as
// Orphan. A domain unknown to the remote authority gets a zone created
// and is left for the next run to check.
func (o *Orchestrator) ProcessDomain(ctx context.Context, name string, dryRun bool) (*valueobject.ReconciliationResult, error) {
	name = entity.NormalizeName(name)
	if err := entity.ValidateName(name); err != nil {
		return nil, err
	}
	if o.excluded(name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrExcludedDomain, name)
	}

	var result *valueobject.ReconciliationResult
	err := logger.TimedOperation(ctx, "domain", func() error {
		log := logger.FromContext(ctx).With("domain", name)
		now := o.now()

		domains, err := o.store.Load(ctx)
		if err != nil {
			return domain.WrapOp("load tracking", err)
		}
		record, tracked := domains[name]
		if !tracked {
			record = entity.NewTrackedDomain(name)
		}

		deleg := o.delegation.Verify(ctx, name)
		if !deleg.Verified {
			log.Warn("delegation not verified, marking orphan", "errors", deleg.Errors)
			record.Transition(entity.StateOrphan, now)
			domains[name] = record
			if err := o.save(ctx, domains); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s: %s", domain.ErrDelegationFailed, name, strings.Join(deleg.Errors, "; "))
		}
		log.Debug("delegation verified", "path", deleg.Path)

		lookup, err := o.remote.GetZone(ctx, name)
		if err != nil {
			return domain.WrapOp("remote lookup", err)
		}
		if lookup.NotFound {
			res := valueobject.ReconciliationResult{Domain: name, Outcome: valueobject.OutcomeUnknown}
			if dryRun {
				res.Detail = "[dry-run] would create remote zone"
			} else {
				if err := o.remote.CreateZone(ctx, name); err != nil {
					return domain.WrapOp("create zone", err)
				}
				res.Detail = "remote zone created"
			}
			log.Info(res.Detail, "remote", o.remote.Name())
			result = &res
			if !tracked {
				domains[name] = record
			}
			return o.save(ctx, domains)
		}

		if o.confirm != nil && !o.confirm(fmt.Sprintf("Check sync status for %s?", name)) {
			return domain.ErrDeclined
		}
		res, err := o.scheduler.ReconcileDomain(ctx, name, dryRun, o.confirm)
		result = &res
		if err != nil {
			return err
		}

		record.Transition(entity.StateActive, now)
		domains[name] = record
		return o.save(ctx, domains)
	})
	return result, err
}

func (o *Orchestrator) save(ctx context.Context, domains map[string]*entity.TrackedDomain) error {
	if err := o.store.Save(ctx, domains); err != nil {
		return domain.WrapOp("save tracking", err)
	}
	o.observer.ObserveTracked(domains)
	return nil
}
