package commands

import (
	"context"

	"gorm.io/gorm"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
	"github.com/dryanez/MrcarCotizacion/internal/repo"
)

// vehicleRepoShim adapts the repository free functions to the
// services.VehicleRepo interface, mirroring the HTTP router's wiring.
type vehicleRepoShim struct{}

func (vehicleRepoShim) GetVehicle(ctx context.Context, db *gorm.DB, plate string) (*domain.Vehicle, error) {
	return repo.GetVehicle(ctx, db, plate)
}

func (vehicleRepoShim) UpsertVehicle(ctx context.Context, db *gorm.DB, v *domain.Vehicle) error {
	return repo.UpsertVehicle(ctx, db, v)
}

func (vehicleRepoShim) CountVehicles(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountVehicles(ctx, db)
}

func (vehicleRepoShim) ListVehiclesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Vehicle, error) {
	return repo.ListVehiclesPage(ctx, db, offset, limit)
}

// usageRepoShim adapts the usage-counter free functions to the
// services.UsageRepo interface.
type usageRepoShim struct{}

func (usageRepoShim) TryAcquireUsage(ctx context.Context, db *gorm.DB, date string, ceiling int) (bool, error) {
	return repo.TryAcquireUsage(ctx, db, date, ceiling)
}

func (usageRepoShim) GetUsage(ctx context.Context, db *gorm.DB, date string) (int, error) {
	return repo.GetUsage(ctx, db, date)
}
