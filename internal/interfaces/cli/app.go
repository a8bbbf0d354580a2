package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lite-lake/dnssync/internal/application/orchestrator"
	"github.com/lite-lake/dnssync/internal/application/scheduler"
	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain/circuit"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/retry"
	"github.com/lite-lake/dnssync/internal/domain/service"
	"github.com/lite-lake/dnssync/internal/infrastructure/bind"
	"github.com/lite-lake/dnssync/internal/infrastructure/cpanel"
	"github.com/lite-lake/dnssync/internal/infrastructure/delegation"
	"github.com/lite-lake/dnssync/internal/infrastructure/dns"
	"github.com/lite-lake/dnssync/internal/infrastructure/environment"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
	"github.com/lite-lake/dnssync/internal/infrastructure/metrics"
	"github.com/lite-lake/dnssync/internal/infrastructure/persistence"
	"github.com/lite-lake/dnssync/internal/infrastructure/resolver"
	"github.com/lite-lake/dnssync/internal/infrastructure/shell"
	"github.com/lite-lake/dnssync/internal/infrastructure/ssh"
	"github.com/lite-lake/dnssync/internal/infrastructure/tracking"
)

// App holds every collaborator of one command invocation.
type App struct {
	cfg     *entity.Config
	metrics *metrics.Metrics
	store   *tracking.Store
	orch    *orchestrator.Orchestrator
	checker *environment.Checker
	closers []io.Closer
}

func loadConfig(ctx context.Context, c *Context) (*entity.Config, error) {
	cfg, err := persistence.NewConfigLoader(c.ConfigPath).Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := setupLogging(c, &cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging re-initialises the logger once flags and config are known.
// Flags win over the configured level.
func setupLogging(c *Context, lc *entity.LoggingConfig) error {
	lcfg := logger.ConfigFromEnv()
	if lc.Format != "" && os.Getenv("DNSSYNC_LOG_FORMAT") == "" {
		lcfg.Format = lc.Format
	}
	switch strings.ToLower(lc.Level) {
	case "debug":
		lcfg.Level = slog.LevelDebug
	case "warn", "warning":
		lcfg.Level = slog.LevelWarn
	case "error":
		lcfg.Level = slog.LevelError
	}
	if c.Verbose {
		lcfg.Level = slog.LevelDebug
	}
	if c.Silent {
		lcfg.Level = slog.LevelWarn
	}
	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermission)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		lcfg.Output = io.MultiWriter(os.Stderr, f)
	}
	logger.Init(lcfg)
	return nil
}

// NewApp builds the full collaborator graph. The tracking store is opened
// last so nothing touches it before the caller holds the run lock.
func NewApp(ctx context.Context, cfg *entity.Config, prompter *Prompter) (*App, error) {
	app := &App{cfg: cfg, metrics: metrics.New()}
	logger.SetOperationObserver(app.metrics.ObserveOperation)

	secrets := cfg.SecretMap()
	res := cfg.Resilience
	registry := circuit.NewRegistry(
		circuit.WithFailureThreshold(res.FailureThreshold),
		circuit.WithRecoveryTimeout(res.RecoveryTimeout.Std()),
		circuit.WithStateChangeHook(func(name string, from, to circuit.State) {
			app.metrics.ObserveState(name, from, to)
			logger.Warn("circuit state changed", "endpoint", name, "from", from, "to", to)
		}),
	)
	barrier := func(endpoint string) *circuit.Barrier {
		return circuit.NewBarrier(registry.Get(endpoint),
			circuit.WithTimeout(res.Timeout.Std()),
			circuit.WithObserver(app.metrics),
			circuit.WithRetryOptions(
				retry.WithMaxRetries(*res.MaxRetries),
				retry.WithBase(res.BackoffBase),
				retry.WithUnit(res.BackoffUnit.Std()),
				retry.WithMaxDelay(res.MaxBackoff.Std()),
			),
		)
	}

	runner, err := app.commandRunner(secrets)
	if err != nil {
		return nil, err
	}

	probe := resolver.New(cfg.Local.Timeout.Std(), resolver.WithRecursive(cfg.Local.Nameserver))
	local := circuit.NewResilientLocal(
		bind.New(runner, probe, cfg.Local.Nameserver, cfg.Local.ZoneDirs),
		barrier("local"),
	)

	api, err := dns.NewFactory(probe, res.Timeout.Std()).Create(&cfg.Remote, secrets)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("remote authority: %w", err)
	}
	remote := circuit.NewResilientZoneAPI(api, barrier(api.Name()))
	app.checker = environment.NewChecker(runner, probe, remote, cfg.Local.Nameserver, cfg.Local.ZoneDirs)

	tracer := resolver.New(cfg.Delegation.Timeout.Std(), resolver.WithRecursive(cfg.Local.Nameserver))
	var verifierOpts []delegation.Option
	if cfg.Delegation.WHOIS {
		verifierOpts = append(verifierOpts, delegation.WithWHOIS(
			delegation.NewWHOIS(cfg.Delegation.WHOISServer, cfg.Delegation.Timeout.Std()),
		))
	}
	verifier := delegation.NewVerifier(tracer, cfg.Delegation.RootServers, verifierOpts...)

	store, err := tracking.Open(ctx, cfg.Tracking.DSN)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.store = store
	app.closers = append(app.closers, store)

	detector := service.NewDriftDetector(local, remote, *cfg.Sync.MaxDrift)
	corrector := service.NewDriftCorrector(local)
	sched := scheduler.New(store, detector, corrector, scheduler.WithObserver(app.metrics))

	opts := []orchestrator.Option{orchestrator.WithObserver(app.metrics)}
	if prompter != nil {
		opts = append(opts, orchestrator.WithConfirm(prompter.Step))
	}
	app.orch = orchestrator.New(orchestrator.Dependencies{
		Store:       store,
		Affiliation: cpanel.NewSource(runner),
		Delegation:  verifier,
		Remote:      remote,
		Scheduler:   sched,
	}, orchestrator.SettingsFromConfig(cfg), opts...)

	return app, nil
}

// commandRunner picks SSH when the cPanel host is remote.
func (a *App) commandRunner(secrets map[string]string) (contract.CommandRunner, error) {
	sc := a.cfg.Local.SSH
	if sc == nil {
		return shell.NewRunner(), nil
	}
	password, err := sc.Password.Resolve(secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve ssh password: %w", err)
	}
	client, err := ssh.NewClient(sc.Host, sc.Port, sc.User, password, a.cfg.Local.Timeout.Std())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client)
	return client, nil
}

// Close flushes metrics and releases connections.
func (a *App) Close() {
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			logger.Warn("failed to write metrics textfile", "path", path, "error", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
