package orchestrator

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

// Transitions lists the state changes one affiliation snapshot produced.
type Transitions struct {
	Added       []string
	Deactivated []string
	Reactivated []string
	Forgotten   []string
}

func (t *Transitions) Empty() bool {
	return len(t.Added)+len(t.Deactivated)+len(t.Reactivated)+len(t.Forgotten) == 0
}

// ApplyAffiliation folds one affiliated-domain snapshot into domains.
// Unknown affiliated names are tracked as new Active domains, Active names
// missing from the snapshot become Inactive at now, and Inactive names that
// reappear become Active again. Excluded names are ignored in the snapshot
// and dropped from tracking without any remote action. Orphans are left to
// the delegation sweep.
func ApplyAffiliation(domains map[string]*entity.TrackedDomain, affiliated map[string]struct{}, excluded map[string]struct{}, now time.Time) Transitions {
	var t Transitions

	for name := range excluded {
		if _, ok := domains[name]; ok {
			delete(domains, name)
			t.Forgotten = append(t.Forgotten, name)
		}
	}

	for name := range affiliated {
		if _, skip := excluded[name]; skip {
			continue
		}
		d, ok := domains[name]
		switch {
		case !ok:
			domains[name] = entity.NewTrackedDomain(name)
			t.Added = append(t.Added, name)
		case d.State == entity.StateInactive:
			d.Transition(entity.StateActive, now)
			t.Reactivated = append(t.Reactivated, name)
		}
	}

	for name, d := range domains {
		if d.State != entity.StateActive {
			continue
		}
		if _, ok := affiliated[name]; !ok {
			d.Transition(entity.StateInactive, now)
			t.Deactivated = append(t.Deactivated, name)
		}
	}

	sort.Strings(t.Added)
	sort.Strings(t.Deactivated)
	sort.Strings(t.Reactivated)
	sort.Strings(t.Forgotten)
	return t
}

// CleanupReport lists what the grace-period sweep did.
type CleanupReport struct {
	DryRun   bool
	Expired  []string
	Removed  []string
	Failed   map[string]error
	Retained int
}

// expired reports domains Inactive for strictly longer than grace.
func expired(domains map[string]*entity.TrackedDomain, grace time.Duration, now time.Time) []string {
	var names []string
	for name, d := range domains {
		if d.State == entity.StateInactive && now.Sub(d.LastTransition) > grace {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// cleanup deprovisions expired Inactive domains from the remote authority
// and deletes their records. A record is only deleted once the remote
// action succeeded. Dry-run reports the candidates and changes nothing.
func (o *Orchestrator) cleanup(ctx context.Context, domains map[string]*entity.TrackedDomain, dryRun bool, now time.Time) CleanupReport {
	log := logger.FromContext(ctx)
	report := CleanupReport{DryRun: dryRun, Failed: map[string]error{}}
	report.Expired = expired(domains, o.settings.GracePeriod, now)

	for _, name := range report.Expired {
		if err := ctx.Err(); err != nil {
			break
		}
		age := now.Sub(domains[name].LastTransition).Round(time.Second)
		if dryRun {
			log.Info("[dry-run] would "+string(o.settings.CleanupAction)+" remote zone", "domain", name, "inactive_for", age)
			continue
		}
		if err := o.deprovision(ctx, name); err != nil {
			report.Failed[name] = err
			log.Error("cleanup failed, record kept", "domain", name, "error", err)
			continue
		}
		delete(domains, name)
		report.Removed = append(report.Removed, name)
		log.Info(string(o.settings.CleanupAction)+" remote zone applied", "domain", name, "inactive_for", age)
	}

	for _, d := range domains {
		if d.State == entity.StateInactive {
			report.Retained++
		}
	}
	return report
}

// deprovision applies the configured cleanup action. A zone already gone
// from the remote authority counts as done.
func (o *Orchestrator) deprovision(ctx context.Context, name string) error {
	if o.settings.CleanupAction == entity.CleanupDelete {
		err := o.remote.DeleteZone(ctx, name)
		if errors.Is(err, domain.ErrZoneNotFound) {
			return nil
		}
		return domain.WrapOp("delete zone", err)
	}

	lookup, err := o.remote.GetZone(ctx, name)
	if err != nil {
		return domain.WrapOp("get zone", err)
	}
	if lookup.NotFound {
		return nil
	}
	zone := &entity.Zone{
		Name:     lookup.Zone.Name,
		Kind:     constants.RemoteZoneKind,
		Masters:  []string{},
		Metadata: lookup.Zone.KeepMetadata(constants.DNSSECMetadataPrefix),
	}
	return domain.WrapOp("disconnect zone", o.remote.UpdateZone(ctx, name, zone))
}

// Cleanup runs the grace-period sweep on its own and saves the result.
func (o *Orchestrator) Cleanup(ctx context.Context, dryRun bool) (*CleanupReport, error) {
	var report CleanupReport
	err := logger.TimedOperation(ctx, "cleanup", func() error {
		domains, err := o.store.Load(ctx)
		if err != nil {
			return domain.WrapOp("load tracking", err)
		}
		report = o.cleanup(ctx, domains, dryRun, o.now())
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(report.Removed) == 0 {
			return nil
		}
		return o.save(ctx, domains)
	})
	return &report, err
}

// SweepReport lists orphans whose delegation was checked again.
type SweepReport struct {
	Checked   int
	Recovered []string
	Remaining map[string][]string
}

// SweepOrphans re-verifies every Orphan domain's delegation and moves the
// verified ones back to Active. Failures stay Orphan and are only logged.
func (o *Orchestrator) SweepOrphans(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{Remaining: map[string][]string{}}
	err := logger.TimedOperation(ctx, "orphans", func() error {
		domains, err := o.store.Load(ctx)
		if err != nil {
			return domain.WrapOp("load tracking", err)
		}
		now := o.now()
		names := make([]string, 0)
		for name, d := range domains {
			if d.State == entity.StateOrphan {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		log := logger.FromContext(ctx)
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Checked++
			res := o.delegation.Verify(ctx, name)
			if !res.Verified {
				report.Remaining[name] = res.Errors
				log.Warn("delegation still failing", "domain", name, "errors", res.Errors)
				continue
			}
			domains[name].Transition(entity.StateActive, now)
			report.Recovered = append(report.Recovered, name)
			log.Info("orphan delegation verified, now active", "domain", name)
		}

		if len(report.Recovered) == 0 {
			return nil
		}
		return o.save(ctx, domains)
	})
	return report, err
}
