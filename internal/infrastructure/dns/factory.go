package dns

import (
	"fmt"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/infrastructure/pdns"
)

type CreatorFunc func(remote *entity.RemoteConfig, secrets map[string]string) (contract.ZoneAPI, error)

// Factory builds the remote authority client for the configured provider.
type Factory struct {
	creators map[entity.ProviderType]CreatorFunc
	probe    SerialProbe
	timeout  time.Duration
}

func NewFactory(probe SerialProbe, timeout time.Duration) *Factory {
	f := &Factory{probe: probe, timeout: timeout}
	f.creators = map[entity.ProviderType]CreatorFunc{
		entity.ProviderPowerDNS:   f.createPowerDNS,
		entity.ProviderCloudflare: f.createCloudflare,
		entity.ProviderAliyun:     f.createAliyun,
		entity.ProviderTencent:    f.createTencent,
	}
	return f
}

func (f *Factory) Create(remote *entity.RemoteConfig, secrets map[string]string) (contract.ZoneAPI, error) {
	creator, ok := f.creators[remote.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, remote.Provider)
	}
	return creator(remote, secrets)
}

func (f *Factory) Register(provider entity.ProviderType, creator CreatorFunc) {
	f.creators[provider] = creator
}

func (f *Factory) createPowerDNS(remote *entity.RemoteConfig, secrets map[string]string) (contract.ZoneAPI, error) {
	apiKey, err := remote.APIKey.Resolve(secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve api_key: %w", err)
	}
	return pdns.NewClient(remote.APIURL, apiKey, remote.ServerID, remote.Nameservers, f.timeout), nil
}

func (f *Factory) createCloudflare(remote *entity.RemoteConfig, secrets map[string]string) (contract.ZoneAPI, error) {
	apiToken, err := remote.Credential("api_token", secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve api_token: %w", err)
	}
	accountID := ""
	if _, ok := remote.Credentials["account_id"]; ok {
		accountID, err = remote.Credential("account_id", secrets)
		if err != nil {
			return nil, fmt.Errorf("resolve account_id: %w", err)
		}
	}
	return NewCloudflare(apiToken, accountID, f.probe, remote.MasterNS), nil
}

func (f *Factory) createAliyun(remote *entity.RemoteConfig, secrets map[string]string) (contract.ZoneAPI, error) {
	accessKeyID, err := remote.Credential("access_key_id", secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve access_key_id: %w", err)
	}
	accessKeySecret, err := remote.Credential("access_key_secret", secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve access_key_secret: %w", err)
	}
	return NewAliyun(accessKeyID, accessKeySecret, f.timeout, f.probe, remote.MasterNS)
}

func (f *Factory) createTencent(remote *entity.RemoteConfig, secrets map[string]string) (contract.ZoneAPI, error) {
	secretID, err := remote.Credential("secret_id", secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve secret_id: %w", err)
	}
	secretKey, err := remote.Credential("secret_key", secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve secret_key: %w", err)
	}
	return NewTencent(secretID, secretKey, f.timeout, f.probe, remote.MasterNS)
}
