// Package services – VehicleService
//
// VehicleService is the plate-to-vehicle cache. Lookups hit SQLite first and
// fall back to the registry scraper on a miss, persisting whatever the
// registry returned so every plate is scraped at most once. Concurrent
// requests for the same plate are coalesced into a single in-flight
// resolution; the losers wait and share the winner's result instead of
// spending extra quota.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
	"github.com/dryanez/MrcarCotizacion/internal/observability"
	"github.com/dryanez/MrcarCotizacion/internal/repo"
	"github.com/dryanez/MrcarCotizacion/internal/scrape"
)

// PlateResolver defines the registry-scraper contract required by
// VehicleService. Resolve returns scrape.ErrNotFound for unregistered
// plates and wraps transient site failures as scrape errors.
type PlateResolver interface {
	Resolve(ctx context.Context, plate string) (*domain.Vehicle, error)
}

// VehicleRepo defines the persistence contract required by VehicleService.
type VehicleRepo interface {
	// GetVehicle fetches a vehicle by normalized plate.
	GetVehicle(ctx context.Context, db *gorm.DB, plate string) (*domain.Vehicle, error)

	// UpsertVehicle inserts or refreshes a vehicle row keyed by plate.
	UpsertVehicle(ctx context.Context, db *gorm.DB, v *domain.Vehicle) error

	// CountVehicles returns the total number of cached vehicles.
	CountVehicles(ctx context.Context, db *gorm.DB) (int64, error)

	// ListVehiclesPage returns a page of cached vehicles ordered by plate.
	ListVehiclesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Vehicle, error)
}

// VehicleService resolves plates to vehicle records, caching registry
// results in SQLite.
type VehicleService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the vehicle repository used by this service.
	Repo VehicleRepo
	// Resolver performs the registry scrape on cache misses.
	Resolver PlateResolver

	flight singleflight.Group
}

// NewVehicleService constructs a VehicleService.
func NewVehicleService(db *gorm.DB, r VehicleRepo, resolver PlateResolver) *VehicleService {
	return &VehicleService{DB: db, Repo: r, Resolver: resolver}
}

// GetOrResolve returns the vehicle for plate, consulting the cache first and
// scraping the registry on a miss. refresh forces a fresh scrape even when a
// cached row exists; the refreshed row replaces it. Concurrent calls for the
// same plate share one resolution.
func (s *VehicleService) GetOrResolve(ctx context.Context, plate string, refresh bool) (*domain.Vehicle, error) {
	norm := domain.NormalizePlate(plate)
	if norm == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlate, plate)
	}

	tr := otel.Tracer("services/VehicleService")
	ctx, span := tr.Start(ctx, "GetOrResolve",
		trace.WithAttributes(
			attribute.String("vehicle.plate", norm),
			attribute.Bool("refresh", refresh),
		),
	)
	defer span.End()

	if !refresh {
		v, err := s.Repo.GetVehicle(ctx, s.DB, norm)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			observability.VehicleLookups.WithLabelValues("cache").Inc()
			return v, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	res, err, _ := s.flight.Do(norm, func() (any, error) {
		// Re-check inside the flight: a concurrent winner may have already
		// persisted the row while this caller was queued.
		if !refresh {
			if v, err := s.Repo.GetVehicle(ctx, s.DB, norm); err == nil {
				return v, nil
			} else if !errors.Is(err, repo.ErrNotFound) {
				return nil, err
			}
		}

		v, err := s.Resolver.Resolve(ctx, norm)
		if err != nil {
			if errors.Is(err, scrape.ErrNotFound) {
				return nil, ErrVehicleNotFound
			}
			return nil, err
		}
		if err := s.Repo.UpsertVehicle(ctx, s.DB, v); err != nil {
			return nil, err
		}
		observability.VehicleLookups.WithLabelValues("scrape").Inc()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Vehicle), nil
}

// Get returns the cached vehicle only, without triggering a scrape.
func (s *VehicleService) Get(ctx context.Context, plate string) (*domain.Vehicle, error) {
	norm := domain.NormalizePlate(plate)
	if norm == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlate, plate)
	}
	v, err := s.Repo.GetVehicle(ctx, s.DB, norm)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrVehicleNotFound
	}
	return v, err
}

// Save persists a vehicle row directly, bypassing the scraper. Bulk imports
// use it.
func (s *VehicleService) Save(ctx context.Context, v *domain.Vehicle) error {
	v.Plate = domain.NormalizePlate(v.Plate)
	if v.Plate == "" {
		return ErrInvalidPlate
	}
	return s.Repo.UpsertVehicle(ctx, s.DB, v)
}

// ListPage returns one page of cached vehicles plus the total count.
func (s *VehicleService) ListPage(ctx context.Context, page, perPage int) ([]domain.Vehicle, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	total, err := s.Repo.CountVehicles(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.Repo.ListVehiclesPage(ctx, s.DB, (page-1)*perPage, perPage)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
