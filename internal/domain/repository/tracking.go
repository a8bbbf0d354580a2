package repository

import (
	"context"

	"github.com/lite-lake/dnssync/internal/domain/entity"
)

// TrackingRepository persists every tracked domain. Save replaces the full
// snapshot atomically. Load never fails on corruption; the store is
// quarantined and an empty map returned instead.
type TrackingRepository interface {
	Load(ctx context.Context) (map[string]*entity.TrackedDomain, error)
	Save(ctx context.Context, domains map[string]*entity.TrackedDomain) error
	ByState(ctx context.Context, state entity.State) ([]string, error)
	Close() error
}
