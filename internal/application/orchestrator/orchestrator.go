// Package orchestrator drives the domain lifecycle: it folds the affiliated
// domain set into the tracking store, hands the batch to the scheduler, and
// retires domains that stayed inactive past the grace period.
package orchestrator

import (
	"time"

	"github.com/lite-lake/dnssync/internal/application/scheduler"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/repository"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

type Observer interface {
	ObserveTracked(domains map[string]*entity.TrackedDomain)
}

type nopObserver struct{}

func (nopObserver) ObserveTracked(map[string]*entity.TrackedDomain) {}

// Settings are the sync policy knobs taken from configuration.
type Settings struct {
	MaxDomains    int
	Distribution  valueobject.Distribution
	GracePeriod   time.Duration
	CleanupAction entity.CleanupAction
	Excluded      map[string]struct{}
}

func SettingsFromConfig(cfg *entity.Config) Settings {
	return Settings{
		MaxDomains:    cfg.Sync.MaxDomains,
		Distribution:  cfg.Sync.Distribution,
		GracePeriod:   cfg.Sync.GracePeriod.Std(),
		CleanupAction: cfg.Sync.CleanupAction,
		Excluded:      cfg.Excluded(),
	}
}

type Dependencies struct {
	Store       repository.TrackingRepository
	Affiliation contract.AffiliationSource
	Delegation  contract.DelegationVerifier
	Remote      contract.RemoteAuthority
	Scheduler   *scheduler.Scheduler
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithConfirm installs the step-by-step prompt used by ProcessDomain.
func WithConfirm(confirm scheduler.Confirm) Option {
	return func(o *Orchestrator) { o.confirm = confirm }
}

type Orchestrator struct {
	store       repository.TrackingRepository
	affiliation contract.AffiliationSource
	delegation  contract.DelegationVerifier
	remote      contract.RemoteAuthority
	scheduler   *scheduler.Scheduler
	settings    Settings
	observer    Observer
	confirm     scheduler.Confirm
	now         func() time.Time
}

func New(deps Dependencies, settings Settings, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       deps.Store,
		affiliation: deps.Affiliation,
		delegation:  deps.Delegation,
		remote:      deps.Remote,
		scheduler:   deps.Scheduler,
		settings:    settings,
		observer:    nopObserver{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.settings.Excluded == nil {
		o.settings.Excluded = map[string]struct{}{}
	}
	return o
}

func (o *Orchestrator) excluded(name string) bool {
	_, ok := o.settings.Excluded[name]
	return ok
}
