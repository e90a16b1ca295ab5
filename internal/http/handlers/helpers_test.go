package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
	"github.com/dryanez/MrcarCotizacion/internal/repo"
)

// newHandlerDB opens a throwaway SQLite database for handler tests that need
// real persistence (the ETag path reads repo stats directly).
func newHandlerDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("handler_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// vehicleRepoShim adapts the package-level repo functions to the service's
// repository interface, mirroring the router's wiring.
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
