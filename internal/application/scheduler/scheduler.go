// Package scheduler turns the tracking store into a bounded, fairly
// distributed batch of domains and reconciles each one in turn.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/repository"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

type Detector interface {
	CheckSync(ctx context.Context, name string) valueobject.ReconciliationResult
}

type Corrector interface {
	Correct(ctx context.Context, name string, localSerial, remoteSerial int64, dryRun bool) (valueobject.CorrectionResult, error)
}

type Observer interface {
	ObserveCorrection(r *valueobject.CorrectionResult)
	ObserveSummary(s *valueobject.RunSummary)
}

type nopObserver struct{}

func (nopObserver) ObserveCorrection(*valueobject.CorrectionResult) {}
func (nopObserver) ObserveSummary(*valueobject.RunSummary)          {}

type Queue string

const (
	QueueNew    Queue = "new"
	QueueActive Queue = "active"
	QueueOrphan Queue = "orphan"
)

// Selection is one chosen domain and the queue it was drawn from.
type Selection struct {
	Name  string
	Queue Queue
}

// Confirm asks the operator before a step. A nil Confirm approves
// everything.
type Confirm func(prompt string) bool

func (c Confirm) approve(prompt string) bool {
	return c == nil || c(prompt)
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

type Scheduler struct {
	store     repository.TrackingRepository
	detector  Detector
	corrector Corrector
	observer  Observer
	now       func() time.Time
}

func New(store repository.TrackingRepository, detector Detector, corrector Corrector, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:     store,
		detector:  detector,
		corrector: corrector,
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Now() time.Time { return s.now() }

// SelectBatch partitions domains into the New, Active and Orphan queues,
// orders each oldest first, and takes up to each queue's quota in that
// order until maxDomains have been chosen overall. Inactive domains are
// never selected.
func SelectBatch(domains map[string]*entity.TrackedDomain, maxDomains int, dist valueobject.Distribution) []Selection {
	var newQ, activeQ, orphanQ []*entity.TrackedDomain
	for _, d := range domains {
		switch {
		case d.IsNew():
			newQ = append(newQ, d)
		case d.State == entity.StateActive:
			activeQ = append(activeQ, d)
		case d.State == entity.StateOrphan:
			orphanQ = append(orphanQ, d)
		}
	}

	queues := []struct {
		name    Queue
		domains []*entity.TrackedDomain
		quota   int
	}{
		{QueueNew, newQ, dist.New},
		{QueueActive, activeQ, dist.Active},
		{QueueOrphan, orphanQ, dist.Orphan},
	}

	var batch []Selection
	for _, q := range queues {
		oldestFirst(q.domains)
		for i, d := range q.domains {
			if i >= q.quota || len(batch) >= maxDomains {
				break
			}
			batch = append(batch, Selection{Name: d.Name, Queue: q.name})
		}
	}
	return batch
}

// oldestFirst sorts by last transition, breaking ties by name so the
// order is stable across runs.
func oldestFirst(ds []*entity.TrackedDomain) {
	sort.Slice(ds, func(i, j int) bool {
		ti, tj := ds[i].LastTransition, ds[j].LastTransition
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ds[i].Name < ds[j].Name
	})
}

// Reconcile checks every selected domain in order, correcting critical
// drift and stamping each with now. It mutates domains in place and never
// touches the store. On cancellation it stops at the next domain boundary
// and returns the context error with the partial summary.
func (s *Scheduler) Reconcile(ctx context.Context, domains map[string]*entity.TrackedDomain, batch []Selection, dryRun bool, now time.Time) (*valueobject.RunSummary, error) {
	summary := &valueobject.RunSummary{DryRun: dryRun, StartedAt: now}
	defer func() { summary.Duration = s.now().Sub(now) }()

	for _, sel := range batch {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		logger.FromContext(ctx).Info("processing domain", "domain", sel.Name, "queue", sel.Queue)

		res, _ := s.ReconcileDomain(ctx, sel.Name, dryRun, nil)
		if d, ok := domains[sel.Name]; ok {
			d.Touch(now)
		}
		summary.Add(res)
	}
	return summary, nil
}

// ReconcileDomain checks one domain and corrects critical drift. Outside
// dry-run a successful correction is followed by a second check whose
// result replaces the first. The only error returned is domain.ErrDeclined
// when confirm refuses the correction; every other failure is carried in
// the result.
func (s *Scheduler) ReconcileDomain(ctx context.Context, name string, dryRun bool, confirm Confirm) (valueobject.ReconciliationResult, error) {
	res := s.detector.CheckSync(ctx, name)
	if res.Outcome != valueobject.OutcomeDriftCritical {
		return res, nil
	}
	if !confirm.approve(fmt.Sprintf("Correct SOA serial for %s?", name)) {
		return res, domain.ErrDeclined
	}

	correction, err := s.corrector.Correct(ctx, name, int64(res.LocalSerial), int64(res.RemoteSerial), dryRun)
	s.observer.ObserveCorrection(&correction)
	if err != nil {
		res.Err = err
		res.Correction = &correction
		return res, nil
	}
	if dryRun {
		res.Correction = &correction
		return res, nil
	}

	after := s.detector.CheckSync(ctx, name)
	after.Correction = &correction
	return after, nil
}

// Run loads the tracking store, reconciles one batch and saves the whole
// map once. A cancelled run returns without saving.
func (s *Scheduler) Run(ctx context.Context, maxDomains int, dist valueobject.Distribution, dryRun bool) (*valueobject.RunSummary, error) {
	now := s.now()
	domains, err := s.store.Load(ctx)
	if err != nil {
		return nil, domain.WrapOp("load tracking", err)
	}

	batch := SelectBatch(domains, maxDomains, dist)
	summary, err := s.Reconcile(ctx, domains, batch, dryRun, now)
	if err != nil {
		return summary, err
	}

	if err := s.store.Save(ctx, domains); err != nil {
		return summary, domain.WrapOp("save tracking", err)
	}
	s.Report(ctx, summary)
	return summary, nil
}

// Report logs the run summary and hands it to the observer.
func (s *Scheduler) Report(ctx context.Context, summary *valueobject.RunSummary) {
	s.observer.ObserveSummary(summary)
	logger.FromContext(ctx).Info("run summary",
		"processed", summary.Processed,
		"success", summary.Success,
		"warning", summary.Warning,
		"error", summary.Error,
		"dry_run", summary.DryRun,
		"duration", summary.Duration,
	)
}
