package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
	"gopkg.in/yaml.v3"
)

var ErrConfigNotLoaded = errors.New("config not loaded")

type ConfigLoader struct {
	path string
}

func NewConfigLoader(path string) *ConfigLoader {
	return &ConfigLoader{path: path}
}

func (l *ConfigLoader) Path() string { return l.path }

// Load reads the YAML file, applies defaults and validates the result.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func (l *ConfigLoader) Load(ctx context.Context) (*entity.Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrConfigReadFailed, l.path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	logger.FromContext(ctx).Debug("config loaded", "path", l.path, "provider", cfg.Remote.Provider)
	return cfg, nil
}

func Parse(data []byte) (*entity.Config, error) {
	cfg := &entity.Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigParseFailed, err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Validate(cfg *entity.Config) error {
	if cfg == nil {
		return ErrConfigNotLoaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfigValidateFail, err)
	}
	if err := validateSecretRefs(cfg); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfigValidateFail, err)
	}
	return nil
}

func validateSecretRefs(cfg *entity.Config) error {
	secrets := cfg.SecretMap()
	if cfg.Remote.Provider == entity.ProviderPowerDNS {
		if _, err := cfg.Remote.APIKey.Resolve(secrets); err != nil {
			return fmt.Errorf("remote.api_key: %w", err)
		}
	}
	for key, ref := range cfg.Remote.Credentials {
		if _, err := ref.Resolve(secrets); err != nil {
			return fmt.Errorf("remote.credentials.%s: %w", key, err)
		}
	}
	if cfg.Local.SSH != nil && !cfg.Local.SSH.Password.IsZero() {
		if _, err := cfg.Local.SSH.Password.Resolve(secrets); err != nil {
			return fmt.Errorf("local.ssh.password: %w", err)
		}
	}
	return nil
}
