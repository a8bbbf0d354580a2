package valueobject

import (
	"fmt"
	"log/slog"

	"github.com/lite-lake/dnssync/internal/domain"
)

// SecretRef is a credential given either inline or by name from the
// config's secrets list.
type SecretRef struct {
	Plain  string `yaml:"plain,omitempty"`
	Secret string `yaml:"secret,omitempty"`
}

func NewSecretRefPlain(v string) *SecretRef { return &SecretRef{Plain: v} }

func NewSecretRefSecret(name string) *SecretRef { return &SecretRef{Secret: name} }

func (s *SecretRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var plain string
	if err := unmarshal(&plain); err == nil {
		s.Plain = plain
		return nil
	}

	type alias SecretRef
	var ref alias
	if err := unmarshal(&ref); err != nil {
		return err
	}
	s.Plain = ref.Plain
	s.Secret = ref.Secret
	return nil
}

func (s *SecretRef) Resolve(secrets map[string]string) (string, error) {
	if s == nil {
		return "", domain.ErrEmptyValue
	}
	if s.Secret != "" {
		val, ok := secrets[s.Secret]
		if !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrMissingSecret, s.Secret)
		}
		return val, nil
	}
	return s.Plain, nil
}

func (s *SecretRef) IsZero() bool {
	return s == nil || (s.Plain == "" && s.Secret == "")
}

func (s *SecretRef) Validate() error {
	if s.IsZero() {
		return domain.ErrEmptyValue
	}
	return nil
}

// LogValue keeps credentials out of structured logs.
func (s *SecretRef) LogValue() slog.Value {
	return slog.StringValue("***")
}
