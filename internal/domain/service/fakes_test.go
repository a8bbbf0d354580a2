package service

import (
	"context"
	"fmt"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

type fakeLocal struct {
	serials   map[string]uint32
	soa       entity.SOA
	noZone    bool
	writeErr  error
	reloadErr error
	written   []entity.SOA
	reloads   int
}

func (f *fakeLocal) GetSerial(ctx context.Context, name string) (uint32, error) {
	s, ok := f.serials[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrSerialUnavailable, name)
	}
	return s, nil
}

func (f *fakeLocal) GetSOA(ctx context.Context, name string) (entity.SOA, error) {
	return f.soa, nil
}

func (f *fakeLocal) WriteSOA(ctx context.Context, name string, soa entity.SOA) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, soa)
	return nil
}

func (f *fakeLocal) Reload(ctx context.Context, name string) error {
	f.reloads++
	return f.reloadErr
}

func (f *fakeLocal) HasZone(ctx context.Context, name string) (bool, error) {
	return !f.noZone, nil
}

type fakeRemote struct {
	serials map[string]uint32
	err     error
}

func (f *fakeRemote) Name() string { return "fake" }

func (f *fakeRemote) GetZone(ctx context.Context, name string) (contract.ZoneLookup, error) {
	if f.err != nil {
		return contract.ZoneLookup{}, f.err
	}
	s, ok := f.serials[name]
	if !ok {
		return contract.ZoneLookup{NotFound: true}, nil
	}
	return contract.ZoneLookup{Zone: &entity.Zone{Name: name + ".", Serial: s}}, nil
}

func (f *fakeRemote) CreateZone(ctx context.Context, name string) error { return nil }

func (f *fakeRemote) UpdateZone(ctx context.Context, name string, zone *entity.Zone) error {
	return nil
}

func (f *fakeRemote) DeleteZone(ctx context.Context, name string) error { return nil }
