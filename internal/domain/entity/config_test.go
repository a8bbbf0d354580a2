package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

func validConfig() *Config {
	cfg := &Config{
		Remote: RemoteConfig{
			Provider: ProviderPowerDNS,
			APIURL:   "http://127.0.0.1:8081/api/v1/servers/localhost",
			APIKey:   valueobject.SecretRef{Secret: "pdns"},
		},
		Secrets: []Secret{{Name: "pdns", Value: "k"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if *cfg.Sync.MaxDrift != 5 || cfg.Sync.MaxDomains != 10 {
		t.Errorf("sync defaults = %+v", cfg.Sync)
	}
	if cfg.Sync.Distribution != (valueobject.Distribution{New: 4, Active: 4, Orphan: 2}) {
		t.Errorf("distribution = %+v", cfg.Sync.Distribution)
	}
	if cfg.Sync.GracePeriod.Std() != time.Hour {
		t.Errorf("grace period = %v", cfg.Sync.GracePeriod.Std())
	}
	if cfg.Resilience.FailureThreshold != 5 || *cfg.Resilience.MaxRetries != 3 {
		t.Errorf("resilience = %+v", cfg.Resilience)
	}
	if cfg.Resilience.RecoveryTimeout.Std() != 60*time.Second || cfg.Resilience.Timeout.Std() != 5*time.Second {
		t.Errorf("resilience timers = %+v", cfg.Resilience)
	}
	if cfg.Sync.CleanupAction != CleanupDisconnect {
		t.Errorf("cleanup action = %q", cfg.Sync.CleanupAction)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_ZeroRetriesKept(t *testing.T) {
	zero := 0
	cfg := &Config{Resilience: ResilienceConfig{MaxRetries: &zero}}
	cfg.ApplyDefaults()
	if *cfg.Resilience.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want explicit 0 kept", *cfg.Resilience.MaxRetries)
	}
}

func TestConfig_ZeroMaxDriftKept(t *testing.T) {
	zero := uint32(0)
	cfg := &Config{Sync: SyncConfig{MaxDrift: &zero}}
	cfg.ApplyDefaults()
	if *cfg.Sync.MaxDrift != 0 {
		t.Errorf("MaxDrift = %d, want explicit 0 kept", *cfg.Sync.MaxDrift)
	}
}

func TestConfig_CloudCleanupAction(t *testing.T) {
	cloud := func() *Config {
		return &Config{Remote: RemoteConfig{
			Provider:    ProviderCloudflare,
			MasterNS:    "ns1.cloudflare.com",
			Credentials: map[string]valueobject.SecretRef{"api_token": {Secret: "cf"}},
		}}
	}

	cfg := cloud()
	cfg.ApplyDefaults()
	if cfg.Sync.CleanupAction != CleanupDelete {
		t.Errorf("default cleanup action for cloud = %q, want delete", cfg.Sync.CleanupAction)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	cfg = cloud()
	cfg.Sync.CleanupAction = CleanupDisconnect
	cfg.ApplyDefaults()
	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Validate() error = %v, want ErrInvalidInput for disconnect on cloud", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"unknown provider", func(c *Config) { c.Remote.Provider = "route53" }, domain.ErrUnsupportedProvider},
		{"missing api url", func(c *Config) { c.Remote.APIURL = "" }, domain.ErrRequired},
		{"cloud without master", func(c *Config) { c.Remote.Provider = ProviderCloudflare }, domain.ErrRequired},
		{"negative quota", func(c *Config) { c.Sync.Distribution.Orphan = -1 }, domain.ErrInvalidInput},
		{"bad cleanup", func(c *Config) { c.Sync.CleanupAction = "purge" }, domain.ErrInvalidInput},
		{"bad excluded", func(c *Config) { c.Sync.ExcludedDomains = []string{"not a domain"} }, domain.ErrInvalidDomain},
		{"ssh without host", func(c *Config) { c.Local.SSH = &SSHConfig{User: "root"} }, domain.ErrRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Excluded(t *testing.T) {
	cfg := &Config{Sync: SyncConfig{ExcludedDomains: []string{"Example.COM.", "other.net"}}}
	ex := cfg.Excluded()
	if _, ok := ex["example.com"]; !ok {
		t.Errorf("Excluded() = %v", ex)
	}
	if len(ex) != 2 {
		t.Errorf("len = %d", len(ex))
	}
}

func TestRemoteConfig_Credential(t *testing.T) {
	r := RemoteConfig{Credentials: map[string]valueobject.SecretRef{"api_token": {Secret: "cf"}}}
	got, err := r.Credential("api_token", map[string]string{"cf": "tok"})
	if err != nil || got != "tok" {
		t.Errorf("Credential() = %q, %v", got, err)
	}
	if _, err := r.Credential("account_id", nil); !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("Credential() error = %v", err)
	}
}
