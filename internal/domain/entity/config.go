package entity

import (
	"fmt"

	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

type Config struct {
	Secrets    []Secret         `yaml:"secrets,omitempty"`
	Tracking   TrackingConfig   `yaml:"tracking"`
	Lock       LockConfig       `yaml:"lock"`
	Local      LocalConfig      `yaml:"local"`
	Remote     RemoteConfig     `yaml:"remote"`
	Sync       SyncConfig       `yaml:"sync"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Delegation DelegationConfig `yaml:"delegation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type TrackingConfig struct {
	DSN string `yaml:"dsn"`
}

type LockConfig struct {
	Path       string               `yaml:"path"`
	StaleAfter valueobject.Duration `yaml:"stale_after"`
}

type SSHConfig struct {
	Host     string                `yaml:"host"`
	Port     int                   `yaml:"port"`
	User     string                `yaml:"user"`
	Password valueobject.SecretRef `yaml:"password"`
}

// LocalConfig points at the BIND server managed through cPanel. Without SSH
// the tooling runs on this host.
type LocalConfig struct {
	Nameserver string               `yaml:"nameserver"`
	ZoneDirs   []string             `yaml:"zone_dirs,omitempty"`
	SSH        *SSHConfig           `yaml:"ssh,omitempty"`
	Timeout    valueobject.Duration `yaml:"timeout"`
}

type SyncConfig struct {
	MaxDrift        *uint32                  `yaml:"max_drift,omitempty"`
	MaxDomains      int                      `yaml:"max_domains"`
	Distribution    valueobject.Distribution `yaml:"distribution"`
	GracePeriod     valueobject.Duration     `yaml:"grace_period"`
	ExcludedDomains []string                 `yaml:"excluded_domains,omitempty"`
	CleanupAction   CleanupAction            `yaml:"cleanup_action"`
}

type ResilienceConfig struct {
	FailureThreshold int                  `yaml:"failure_threshold"`
	RecoveryTimeout  valueobject.Duration `yaml:"recovery_timeout"`
	MaxRetries       *int                 `yaml:"max_retries,omitempty"`
	BackoffBase      float64              `yaml:"backoff_base"`
	BackoffUnit      valueobject.Duration `yaml:"backoff_unit"`
	MaxBackoff       valueobject.Duration `yaml:"max_backoff"`
	Timeout          valueobject.Duration `yaml:"timeout"`
}

type DelegationConfig struct {
	RootServers []string             `yaml:"root_servers,omitempty"`
	Timeout     valueobject.Duration `yaml:"timeout"`
	WHOIS       bool                 `yaml:"whois"`
	WHOISServer string               `yaml:"whois_server,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Tracking.DSN == "" {
		c.Tracking.DSN = constants.DefaultStorePath
	}
	if c.Lock.Path == "" {
		c.Lock.Path = constants.DefaultLockPath
	}
	if c.Lock.StaleAfter == 0 {
		c.Lock.StaleAfter = valueobject.Duration(domain.DefaultLockStaleAfter)
	}
	if c.Local.Nameserver == "" {
		c.Local.Nameserver = constants.DefaultNameserver
	}
	if len(c.Local.ZoneDirs) == 0 {
		c.Local.ZoneDirs = append([]string(nil), constants.DefaultZoneDirs...)
	}
	if c.Local.Timeout == 0 {
		c.Local.Timeout = valueobject.Duration(domain.DefaultCallTimeout)
	}
	if c.Local.SSH != nil && c.Local.SSH.Port == 0 {
		c.Local.SSH.Port = 22
	}
	if c.Remote.Provider == "" {
		c.Remote.Provider = ProviderPowerDNS
	}
	if c.Remote.ServerID == "" {
		c.Remote.ServerID = "localhost"
	}
	if c.Sync.MaxDrift == nil {
		n := uint32(domain.DefaultMaxDrift)
		c.Sync.MaxDrift = &n
	}
	if c.Sync.MaxDomains == 0 {
		c.Sync.MaxDomains = domain.DefaultMaxDomains
	}
	if c.Sync.Distribution.Total() == 0 {
		c.Sync.Distribution = valueobject.DefaultDistribution()
	}
	if c.Sync.GracePeriod == 0 {
		c.Sync.GracePeriod = valueobject.Duration(domain.DefaultGracePeriod)
	}
	if c.Sync.CleanupAction == "" {
		c.Sync.CleanupAction = CleanupDisconnect
		if c.Remote.IsCloud() {
			c.Sync.CleanupAction = CleanupDelete
		}
	}
	if c.Resilience.FailureThreshold == 0 {
		c.Resilience.FailureThreshold = domain.DefaultFailureThreshold
	}
	if c.Resilience.RecoveryTimeout == 0 {
		c.Resilience.RecoveryTimeout = valueobject.Duration(domain.DefaultRecoveryTimeout)
	}
	if c.Resilience.MaxRetries == nil {
		n := domain.DefaultMaxRetries
		c.Resilience.MaxRetries = &n
	}
	if c.Resilience.BackoffBase == 0 {
		c.Resilience.BackoffBase = domain.DefaultBackoffBase
	}
	if c.Resilience.BackoffUnit == 0 {
		c.Resilience.BackoffUnit = valueobject.Duration(domain.DefaultBackoffUnit)
	}
	if c.Resilience.MaxBackoff == 0 {
		c.Resilience.MaxBackoff = valueobject.Duration(domain.DefaultMaxBackoff)
	}
	if c.Resilience.Timeout == 0 {
		c.Resilience.Timeout = valueobject.Duration(domain.DefaultCallTimeout)
	}
	if c.Delegation.Timeout == 0 {
		c.Delegation.Timeout = valueobject.Duration(domain.DefaultCallTimeout)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) Validate() error {
	for i, s := range c.Secrets {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("secrets[%d]: %w", i, err)
		}
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if c.Sync.MaxDomains < 0 {
		return fmt.Errorf("%w: sync.max_domains must not be negative", domain.ErrInvalidInput)
	}
	if err := c.Sync.Distribution.Validate(); err != nil {
		return fmt.Errorf("sync.distribution: %w", err)
	}
	switch c.Sync.CleanupAction {
	case CleanupDisconnect, CleanupDelete:
	default:
		return fmt.Errorf("%w: sync.cleanup_action %q", domain.ErrInvalidInput, c.Sync.CleanupAction)
	}
	if c.Sync.CleanupAction == CleanupDisconnect && c.Remote.IsCloud() {
		return fmt.Errorf("%w: sync.cleanup_action disconnect is not supported by %s, use delete", domain.ErrInvalidInput, c.Remote.Provider)
	}
	for i, d := range c.Sync.ExcludedDomains {
		if err := ValidateName(NormalizeName(d)); err != nil {
			return fmt.Errorf("sync.excluded_domains[%d]: %w", i, err)
		}
	}
	if c.Resilience.MaxRetries != nil && *c.Resilience.MaxRetries < 0 {
		return fmt.Errorf("%w: resilience.max_retries must not be negative", domain.ErrInvalidInput)
	}
	if c.Resilience.BackoffBase < 1 {
		return fmt.Errorf("%w: resilience.backoff_base must be at least 1", domain.ErrInvalidInput)
	}
	if c.Local.SSH != nil {
		if c.Local.SSH.Host == "" {
			return domain.RequiredField("local.ssh.host")
		}
		if c.Local.SSH.User == "" {
			return domain.RequiredField("local.ssh.user")
		}
	}
	return nil
}

func (c *Config) SecretMap() map[string]string {
	m := make(map[string]string, len(c.Secrets))
	for _, s := range c.Secrets {
		m[s.Name] = s.Value
	}
	return m
}

func (c *Config) Excluded() map[string]struct{} {
	m := make(map[string]struct{}, len(c.Sync.ExcludedDomains))
	for _, d := range c.Sync.ExcludedDomains {
		m[NormalizeName(d)] = struct{}{}
	}
	return m
}
