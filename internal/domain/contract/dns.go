package contract

import (
	"context"

	"github.com/lite-lake/dnssync/internal/domain/entity"
)

// ZoneAPI is a plain remote authority client. GetZone reports an absent
// zone by returning an error wrapping domain.ErrZoneNotFound.
type ZoneAPI interface {
	Name() string
	GetZone(ctx context.Context, domain string) (*entity.Zone, error)
	CreateZone(ctx context.Context, domain string) error
	UpdateZone(ctx context.Context, domain string, zone *entity.Zone) error
	DeleteZone(ctx context.Context, domain string) error
}

// ZoneLookup carries an absent zone as a value rather than an error.
type ZoneLookup struct {
	Zone     *entity.Zone
	NotFound bool
}

// RemoteAuthority is the fault-isolated view of a ZoneAPI used by the core.
type RemoteAuthority interface {
	Name() string
	GetZone(ctx context.Context, domain string) (ZoneLookup, error)
	CreateZone(ctx context.Context, domain string) error
	UpdateZone(ctx context.Context, domain string, zone *entity.Zone) error
	DeleteZone(ctx context.Context, domain string) error
}

type LocalAuthority interface {
	GetSerial(ctx context.Context, domain string) (uint32, error)
	GetSOA(ctx context.Context, domain string) (entity.SOA, error)
	WriteSOA(ctx context.Context, domain string, soa entity.SOA) error
	Reload(ctx context.Context, domain string) error
	HasZone(ctx context.Context, domain string) (bool, error)
}

type AffiliationSource interface {
	ListAffiliatedDomains(ctx context.Context) (map[string]struct{}, error)
}

type DelegationResult struct {
	Verified bool
	Errors   []string
	Path     []string
}

type DelegationVerifier interface {
	Verify(ctx context.Context, domain string) DelegationResult
}
