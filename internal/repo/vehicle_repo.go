// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Vehicle
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a vehicle is not found, GetVehicle returns gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// This repository is wrapped by services.VehicleStore, which adds the
// get-or-resolve behavior, rate gating, and per-plate coalescing.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetVehicle fetches a single vehicle by its normalized plate. If the record
// does not exist, it returns ErrNotFound. On other DB errors, the raw error
// is returned.
func GetVehicle(ctx context.Context, db *gorm.DB, plate string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := db.WithContext(ctx).
		Where("plate = ?", plate).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpsertVehicle inserts a vehicle row or, when a row for the plate already
// exists, overwrites its mutable fields (last scrape wins on a forced
// refresh). The plate itself is never changed. CreatedAt is preserved for
// existing rows; UpdatedAt is always bumped.
func UpsertVehicle(ctx context.Context, db *gorm.DB, v *domain.Vehicle) error {
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "plate"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"make", "model", "year",
				"vehicle_type_code", "fuel_code", "service_code", "region_code",
				"owner_name", "owner_rut", "source_file", "updated_at",
			}),
		}).
		Create(v).Error
}

// CountVehicles returns the total number of cached vehicle records.
// On DB error, it returns the error.
func CountVehicles(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Vehicle{}).
		Count(&total).Error
	return total, err
}

// ListVehiclesPage returns a page of vehicle records ordered by plate.
// Use CountVehicles to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListVehiclesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	err := db.WithContext(ctx).
		Order("plate asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// VehiclesStats returns the record count and the most recent update
// timestamp, used by the list handler to build a weak ETag. With no rows the
// timestamp is nil.
func VehiclesStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	total, err := CountVehicles(ctx, db)
	if err != nil {
		return 0, nil, err
	}
	if total == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	err = db.WithContext(ctx).
		Model(&domain.Vehicle{}).
		Select("updated_at").
		Order("updated_at DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, nil, err
	}
	return total, &row.UpdatedAt, nil
}
