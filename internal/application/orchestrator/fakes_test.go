package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/lite-lake/dnssync/internal/application/scheduler"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type memStore struct {
	domains map[string]*entity.TrackedDomain
	saves   int
}

func newStore(ds ...*entity.TrackedDomain) *memStore {
	m := &memStore{domains: map[string]*entity.TrackedDomain{}}
	for _, d := range ds {
		m.domains[d.Name] = d
	}
	return m
}

func (m *memStore) Load(ctx context.Context) (map[string]*entity.TrackedDomain, error) {
	out := make(map[string]*entity.TrackedDomain, len(m.domains))
	for k, v := range m.domains {
		out[k] = v.Clone()
	}
	return out, nil
}

func (m *memStore) Save(ctx context.Context, domains map[string]*entity.TrackedDomain) error {
	m.saves++
	m.domains = domains
	return nil
}

func (m *memStore) ByState(ctx context.Context, state entity.State) ([]string, error) {
	return nil, nil
}

func (m *memStore) Close() error { return nil }

type staticAffiliation struct {
	names []string
	err   error
}

func (a staticAffiliation) ListAffiliatedDomains(ctx context.Context) (map[string]struct{}, error) {
	if a.err != nil {
		return nil, a.err
	}
	out := map[string]struct{}{}
	for _, n := range a.names {
		out[n] = struct{}{}
	}
	return out, nil
}

type fakeVerifier struct {
	verified map[string]bool
	calls    []string
}

func (v *fakeVerifier) Verify(ctx context.Context, name string) contract.DelegationResult {
	v.calls = append(v.calls, name)
	if v.verified[name] {
		return contract.DelegationResult{Verified: true, Path: []string{"com -> a.gtld-servers.net"}}
	}
	return contract.DelegationResult{Errors: []string{"no delegation found for " + name}}
}

type fakeRemote struct {
	zones   map[string]*entity.Zone
	failOn    map[string]error
	updateErr error
	created   []string
	updated   map[string]*entity.Zone
	deleted   []string
}

func newRemote(names ...string) *fakeRemote {
	r := &fakeRemote{zones: map[string]*entity.Zone{}, failOn: map[string]error{}, updated: map[string]*entity.Zone{}}
	for _, n := range names {
		r.zones[n] = &entity.Zone{Name: n + ".", Kind: "Slave", Masters: []string{"192.0.2.1"}, Serial: 2024010100}
	}
	return r
}

func (r *fakeRemote) Name() string { return "fake" }

func (r *fakeRemote) GetZone(ctx context.Context, name string) (contract.ZoneLookup, error) {
	if err := r.failOn[name]; err != nil {
		return contract.ZoneLookup{}, err
	}
	z, ok := r.zones[name]
	if !ok {
		return contract.ZoneLookup{NotFound: true}, nil
	}
	return contract.ZoneLookup{Zone: z}, nil
}

func (r *fakeRemote) CreateZone(ctx context.Context, name string) error {
	r.created = append(r.created, name)
	return nil
}

func (r *fakeRemote) UpdateZone(ctx context.Context, name string, zone *entity.Zone) error {
	if err := r.failOn[name]; err != nil {
		return err
	}
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated[name] = zone
	return nil
}

func (r *fakeRemote) DeleteZone(ctx context.Context, name string) error {
	if err := r.failOn[name]; err != nil {
		return err
	}
	if _, ok := r.zones[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, name)
	}
	r.deleted = append(r.deleted, name)
	return nil
}

type fixedDetector struct {
	outcomes map[string][]valueobject.Outcome
	checked  []string
}

func (d *fixedDetector) CheckSync(ctx context.Context, name string) valueobject.ReconciliationResult {
	n := 0
	for _, c := range d.checked {
		if c == name {
			n++
		}
	}
	d.checked = append(d.checked, name)
	out := valueobject.OutcomeInSync
	if seq := d.outcomes[name]; len(seq) > 0 {
		if n >= len(seq) {
			n = len(seq) - 1
		}
		out = seq[n]
	}
	return valueobject.ReconciliationResult{Domain: name, Outcome: out, LocalKnown: true, RemoteKnown: true}
}

type countingCorrector struct{ calls int }

func (c *countingCorrector) Correct(ctx context.Context, name string, local, remote int64, dryRun bool) (valueobject.CorrectionResult, error) {
	c.calls++
	return valueobject.CorrectionResult{Domain: name, DryRun: dryRun, Success: true}, nil
}

type harness struct {
	store     *memStore
	remote    *fakeRemote
	verifier  *fakeVerifier
	detector  *fixedDetector
	corrector *countingCorrector
	orch      *Orchestrator
}

func newHarness(store *memStore, affiliated []string, settings Settings, opts ...Option) *harness {
	h := &harness{
		store:     store,
		remote:    newRemote(),
		verifier:  &fakeVerifier{verified: map[string]bool{}},
		detector:  &fixedDetector{outcomes: map[string][]valueobject.Outcome{}},
		corrector: &countingCorrector{},
	}
	sched := scheduler.New(store, h.detector, h.corrector)
	h.orch = New(Dependencies{
		Store:       store,
		Affiliation: staticAffiliation{names: affiliated},
		Delegation:  h.verifier,
		Remote:      h.remote,
		Scheduler:   sched,
	}, settings, opts...)
	return h
}

func defaultSettings() Settings {
	return Settings{
		MaxDomains:    10,
		Distribution:  valueobject.DefaultDistribution(),
		GracePeriod:   time.Hour,
		CleanupAction: entity.CleanupDisconnect,
	}
}

func at(t time.Time) func() time.Time { return func() time.Time { return t } }

func tracked(name string, state entity.State, ts time.Time) *entity.TrackedDomain {
	return &entity.TrackedDomain{Name: name, State: state, LastTransition: ts}
}
