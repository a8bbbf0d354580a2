package entity

import (
	"fmt"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

type ProviderType string

const (
	ProviderPowerDNS   ProviderType = "powerdns"
	ProviderCloudflare ProviderType = "cloudflare"
	ProviderAliyun     ProviderType = "aliyun"
	ProviderTencent    ProviderType = "tencent"
)

type CleanupAction string

const (
	CleanupDisconnect CleanupAction = "disconnect"
	CleanupDelete     CleanupAction = "delete"
)

// RemoteConfig describes the remote authority. PowerDNS uses APIURL,
// APIKey and ServerID; cloud providers read Credentials and probe MasterNS
// for serials.
type RemoteConfig struct {
	Provider    ProviderType                     `yaml:"provider"`
	APIURL      string                           `yaml:"api_url,omitempty"`
	APIKey      valueobject.SecretRef            `yaml:"api_key,omitempty"`
	ServerID    string                           `yaml:"server_id,omitempty"`
	MasterNS    string                           `yaml:"master_ns,omitempty"`
	Nameservers []string                         `yaml:"nameservers,omitempty"`
	Credentials map[string]valueobject.SecretRef `yaml:"credentials,omitempty"`
}

// IsCloud reports providers whose zones are always primary.
func (r *RemoteConfig) IsCloud() bool {
	switch r.Provider {
	case ProviderCloudflare, ProviderAliyun, ProviderTencent:
		return true
	}
	return false
}

func (r *RemoteConfig) Validate() error {
	switch r.Provider {
	case ProviderPowerDNS:
		if r.APIURL == "" {
			return domain.RequiredField("remote.api_url")
		}
		if err := r.APIKey.Validate(); err != nil {
			return fmt.Errorf("remote.api_key: %w", err)
		}
	case ProviderCloudflare, ProviderAliyun, ProviderTencent:
		if r.MasterNS == "" {
			return domain.RequiredField("remote.master_ns")
		}
		if len(r.Credentials) == 0 {
			return domain.RequiredField("remote.credentials")
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, r.Provider)
	}
	return nil
}

func (r *RemoteConfig) Credential(key string, secrets map[string]string) (string, error) {
	ref, ok := r.Credentials[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrMissingCredential, key)
	}
	return ref.Resolve(secrets)
}
