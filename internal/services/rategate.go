// Package services – RateGate
//
// RateGate enforces the shared daily scraping allowance. Every scrape
// attempt, from any caller, consumes one unit from a single per-day counter
// persisted in SQLite, so the budget survives restarts and is shared across
// the HTTP server and CLI. Acquisition is atomic: concurrent attempts never
// overshoot the ceiling and denied attempts leave the counter untouched.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dryanez/MrcarCotizacion/internal/observability"
	"github.com/dryanez/MrcarCotizacion/internal/repo"
)

// UsageRepo defines the persistence contract required by RateGate.
type UsageRepo interface {
	// TryAcquireUsage atomically increments the day's counter if it is
	// below ceiling, reporting whether the unit was granted.
	TryAcquireUsage(ctx context.Context, db *gorm.DB, date string, ceiling int) (bool, error)

	// GetUsage returns the day's current count, zero when absent.
	GetUsage(ctx context.Context, db *gorm.DB, date string) (int, error)
}

// RateGate meters scrape attempts against a daily ceiling. It satisfies the
// scrape package's gate contract.
type RateGate struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the usage-counter repository.
	Repo UsageRepo
	// Ceiling is the maximum scrape attempts per UTC day.
	Ceiling int
	// Now supplies the clock; defaults to time.Now. Tests override it.
	Now func() time.Time
}

// NewRateGate constructs a RateGate over db with the given daily ceiling.
func NewRateGate(db *gorm.DB, r UsageRepo, ceiling int) *RateGate {
	return &RateGate{DB: db, Repo: r, Ceiling: ceiling, Now: time.Now}
}

// TryAcquire consumes one scrape unit for today, returning ErrQuotaExhausted
// once the ceiling is reached. Days roll over at UTC midnight.
func (g *RateGate) TryAcquire(ctx context.Context) error {
	granted, err := g.Repo.TryAcquireUsage(ctx, g.DB, repo.UsageDate(g.Now()), g.Ceiling)
	if err != nil {
		return err
	}
	if !granted {
		observability.QuotaDecisions.WithLabelValues("denied").Inc()
		return ErrQuotaExhausted
	}
	observability.QuotaDecisions.WithLabelValues("granted").Inc()
	return nil
}

// UsedToday reports how many units the current UTC day has consumed.
func (g *RateGate) UsedToday(ctx context.Context) (int, error) {
	return g.Repo.GetUsage(ctx, g.DB, repo.UsageDate(g.Now()))
}
