package dns

import (
	"errors"
	"testing"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

func TestFactory_Create(t *testing.T) {
	f := NewFactory(&fakeProbe{}, 5*time.Second)
	secrets := map[string]string{"cf": "token"}

	tests := []struct {
		name     string
		remote   entity.RemoteConfig
		wantName string
		wantErr  error
	}{
		{
			name:     "powerdns",
			remote:   entity.RemoteConfig{Provider: entity.ProviderPowerDNS, APIURL: "http://127.0.0.1:8081/api/v1", APIKey: *valueobject.NewSecretRefPlain("k"), ServerID: "localhost"},
			wantName: "powerdns",
		},
		{
			name: "cloudflare",
			remote: entity.RemoteConfig{Provider: entity.ProviderCloudflare, MasterNS: "ns", Credentials: map[string]valueobject.SecretRef{
				"api_token": *valueobject.NewSecretRefSecret("cf"),
			}},
			wantName: "cloudflare",
		},
		{
			name:    "powerdns missing secret",
			remote:  entity.RemoteConfig{Provider: entity.ProviderPowerDNS, APIKey: *valueobject.NewSecretRefSecret("nope")},
			wantErr: domain.ErrMissingSecret,
		},
		{
			name:    "aliyun missing credential",
			remote:  entity.RemoteConfig{Provider: entity.ProviderAliyun, MasterNS: "ns"},
			wantErr: domain.ErrMissingCredential,
		},
		{
			name:    "tencent missing credential",
			remote:  entity.RemoteConfig{Provider: entity.ProviderTencent, MasterNS: "ns"},
			wantErr: domain.ErrMissingCredential,
		},
		{
			name:    "unsupported",
			remote:  entity.RemoteConfig{Provider: "route53"},
			wantErr: domain.ErrUnsupportedProvider,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, err := f.Create(&tt.remote, secrets)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if api.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", api.Name(), tt.wantName)
			}
		})
	}
}

func TestFactory_Register(t *testing.T) {
	f := NewFactory(&fakeProbe{}, time.Second)
	called := false
	f.Register("custom", func(*entity.RemoteConfig, map[string]string) (contract.ZoneAPI, error) {
		called = true
		return nil, nil
	})
	if _, err := f.Create(&entity.RemoteConfig{Provider: "custom"}, nil); err != nil || !called {
		t.Errorf("custom creator not used: %v", err)
	}
}
