package entity

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
)

type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
	StateOrphan   State = "orphan"
)

func ParseState(s string) (State, error) {
	switch State(strings.ToLower(strings.TrimSpace(s))) {
	case StateActive:
		return StateActive, nil
	case StateInactive:
		return StateInactive, nil
	case StateOrphan:
		return StateOrphan, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidState, s)
}

func (s State) String() string { return string(s) }

// TrackedDomain is one row of the tracking store. A zero LastTransition
// means the domain has never been reconciled. Metadata is stored and
// written back byte for byte; nothing here interprets it.
type TrackedDomain struct {
	Name           string
	State          State
	LastTransition time.Time
	Metadata       []byte
}

func NewTrackedDomain(name string) *TrackedDomain {
	return &TrackedDomain{Name: NormalizeName(name), State: StateActive}
}

func (d *TrackedDomain) IsNew() bool {
	return d.State == StateActive && d.LastTransition.IsZero()
}

func (d *TrackedDomain) Transition(state State, at time.Time) {
	d.State = state
	d.LastTransition = at.UTC()
}

func (d *TrackedDomain) Touch(at time.Time) {
	d.LastTransition = at.UTC()
}

// Age reports how long the domain has been in its current state. Never
// transitioned domains report zero.
func (d *TrackedDomain) Age(now time.Time) time.Duration {
	if d.LastTransition.IsZero() {
		return 0
	}
	return now.Sub(d.LastTransition)
}

func (d *TrackedDomain) Clone() *TrackedDomain {
	c := *d
	if d.Metadata != nil {
		c.Metadata = append([]byte(nil), d.Metadata...)
	}
	return &c
}

var domainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)

func (d *TrackedDomain) Validate() error {
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	_, err := ParseState(string(d.State))
	return err
}

func NormalizeName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: domain name is required", domain.ErrInvalidDomain)
	}
	if len(name) > 253 || !domainRegex.MatchString(name) {
		return fmt.Errorf("%w: invalid domain format %s", domain.ErrInvalidDomain, name)
	}
	return nil
}

// FQDN returns the name with a single trailing dot.
func FQDN(name string) string {
	return NormalizeName(name) + "."
}
