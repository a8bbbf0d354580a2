package circuit

import (
	"context"
	"errors"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

// ResilientZoneAPI routes every call of a plain ZoneAPI through a Barrier
// and turns an absent zone into a ZoneLookup value.
type ResilientZoneAPI struct {
	api     contract.ZoneAPI
	barrier *Barrier
}

var _ contract.RemoteAuthority = (*ResilientZoneAPI)(nil)

func NewResilientZoneAPI(api contract.ZoneAPI, barrier *Barrier) *ResilientZoneAPI {
	return &ResilientZoneAPI{api: api, barrier: barrier}
}

func (r *ResilientZoneAPI) Name() string { return r.api.Name() }

func (r *ResilientZoneAPI) GetZone(ctx context.Context, name string) (contract.ZoneLookup, error) {
	zone, err := Do(ctx, r.barrier, "get_zone", func(ctx context.Context) (*entity.Zone, error) {
		return r.api.GetZone(ctx, name)
	})
	if errors.Is(err, domain.ErrZoneNotFound) {
		return contract.ZoneLookup{NotFound: true}, nil
	}
	if err != nil {
		return contract.ZoneLookup{}, err
	}
	return contract.ZoneLookup{Zone: zone}, nil
}

func (r *ResilientZoneAPI) CreateZone(ctx context.Context, name string) error {
	return r.barrier.Execute(ctx, "create_zone", func(ctx context.Context) error {
		return r.api.CreateZone(ctx, name)
	})
}

func (r *ResilientZoneAPI) UpdateZone(ctx context.Context, name string, zone *entity.Zone) error {
	return r.barrier.Execute(ctx, "update_zone", func(ctx context.Context) error {
		return r.api.UpdateZone(ctx, name, zone)
	})
}

func (r *ResilientZoneAPI) DeleteZone(ctx context.Context, name string) error {
	return r.barrier.Execute(ctx, "delete_zone", func(ctx context.Context) error {
		return r.api.DeleteZone(ctx, name)
	})
}

// ResilientLocal routes the local authority's calls through a Barrier of
// its own so a stuck nameserver or control panel trips a separate breaker.
type ResilientLocal struct {
	local   contract.LocalAuthority
	barrier *Barrier
}

var _ contract.LocalAuthority = (*ResilientLocal)(nil)

func NewResilientLocal(local contract.LocalAuthority, barrier *Barrier) *ResilientLocal {
	return &ResilientLocal{local: local, barrier: barrier}
}

func (r *ResilientLocal) GetSerial(ctx context.Context, name string) (uint32, error) {
	return Do(ctx, r.barrier, "get_serial", func(ctx context.Context) (uint32, error) {
		return r.local.GetSerial(ctx, name)
	})
}

func (r *ResilientLocal) GetSOA(ctx context.Context, name string) (entity.SOA, error) {
	return Do(ctx, r.barrier, "get_soa", func(ctx context.Context) (entity.SOA, error) {
		return r.local.GetSOA(ctx, name)
	})
}

func (r *ResilientLocal) WriteSOA(ctx context.Context, name string, soa entity.SOA) error {
	return r.barrier.Execute(ctx, "write_soa", func(ctx context.Context) error {
		return r.local.WriteSOA(ctx, name, soa)
	})
}

func (r *ResilientLocal) Reload(ctx context.Context, name string) error {
	return r.barrier.Execute(ctx, "reload", func(ctx context.Context) error {
		return r.local.Reload(ctx, name)
	})
}

func (r *ResilientLocal) HasZone(ctx context.Context, name string) (bool, error) {
	return Do(ctx, r.barrier, "has_zone", func(ctx context.Context) (bool, error) {
		return r.local.HasZone(ctx, name)
	})
}
