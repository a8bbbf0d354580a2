package valueobject

import (
	"fmt"

	"github.com/lite-lake/dnssync/internal/domain"
)

// Distribution caps how many domains each lifecycle queue may contribute to
// one run.
type Distribution struct {
	New    int `yaml:"new"`
	Active int `yaml:"active"`
	Orphan int `yaml:"orphan"`
}

func DefaultDistribution() Distribution {
	return Distribution{
		New:    domain.DefaultNewQuota,
		Active: domain.DefaultActiveQuota,
		Orphan: domain.DefaultOrphanQuota,
	}
}

func (d Distribution) Validate() error {
	if d.New < 0 || d.Active < 0 || d.Orphan < 0 {
		return fmt.Errorf("%w: distribution quotas must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func (d Distribution) Total() int {
	return d.New + d.Active + d.Orphan
}
