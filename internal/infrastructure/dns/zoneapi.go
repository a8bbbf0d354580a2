// Package dns adapts cloud DNS providers to the remote authority contract.
// Cloud APIs do not expose SOA serials, so serials are read from the
// provider's master nameserver over DNS.
package dns

import (
	"context"
	"fmt"

	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

// SerialProbe reads a zone's SOA serial from a nameserver.
type SerialProbe interface {
	Serial(ctx context.Context, server, zone string) (uint32, error)
}

// zoneBackend is the per-provider zone CRUD. lookup returns an error
// wrapping domain.ErrZoneNotFound when the provider has no such zone.
type zoneBackend interface {
	name() string
	lookup(ctx context.Context, zone string) (string, error)
	create(ctx context.Context, zone string) error
	remove(ctx context.Context, zone, id string) error
}

var _ contract.ZoneAPI = (*CloudZoneAPI)(nil)

type CloudZoneAPI struct {
	backend  zoneBackend
	probe    SerialProbe
	masterNS string
}

func newCloudZoneAPI(backend zoneBackend, probe SerialProbe, masterNS string) *CloudZoneAPI {
	return &CloudZoneAPI{backend: backend, probe: probe, masterNS: masterNS}
}

func (c *CloudZoneAPI) Name() string { return c.backend.name() }

func (c *CloudZoneAPI) GetZone(ctx context.Context, name string) (*entity.Zone, error) {
	zone := entity.NormalizeName(name)
	if _, err := c.backend.lookup(ctx, zone); err != nil {
		return nil, err
	}
	serial, err := c.probe.Serial(ctx, c.masterNS, zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s @%s: %w", domain.ErrSerialUnavailable, zone, c.masterNS, err)
	}
	return &entity.Zone{
		Name:    entity.FQDN(zone),
		Kind:    constants.RemoteZoneKind,
		Serial:  serial,
		Masters: []string{},
	}, nil
}

func (c *CloudZoneAPI) CreateZone(ctx context.Context, name string) error {
	return c.backend.create(ctx, entity.NormalizeName(name))
}

// UpdateZone is refused: cloud zones are always primary, so there is no
// master relationship to detach and a disconnect would leave the zone
// serving. Callers keep their record and must delete instead.
func (c *CloudZoneAPI) UpdateZone(ctx context.Context, name string, _ *entity.Zone) error {
	logger.FromContext(ctx).Warn("zone update not supported", "provider", c.Name(), "domain", name)
	return fmt.Errorf("%w: %s cannot disconnect %s", domain.ErrUnsupportedOp, c.Name(), entity.NormalizeName(name))
}

func (c *CloudZoneAPI) DeleteZone(ctx context.Context, name string) error {
	zone := entity.NormalizeName(name)
	id, err := c.backend.lookup(ctx, zone)
	if err != nil {
		return err
	}
	return c.backend.remove(ctx, zone, id)
}

func notFound(zone string) error {
	return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zone)
}

func apiError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrRemoteAPI, op, err)
}
