package entity

import (
	"fmt"

	"github.com/lite-lake/dnssync/internal/domain"
)

type Secret struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

func (s *Secret) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: secret name is required", domain.ErrRequired)
	}
	return nil
}
