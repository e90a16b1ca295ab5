// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the daily usage counter behind the
// scrape RateGate.
//
// The counter must stay correct under concurrent acquirers: two requests
// racing for the last unit below the ceiling must not both be granted. The
// increment is therefore a single conditional UPDATE
// (count = count + 1 WHERE date = ? AND count < ceiling) executed inside a
// transaction; RowsAffected tells whether the unit was won. A denial never
// writes anything.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
)

// UsageDate formats t as the usage_counters primary-key string (UTC day).
func UsageDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// TryAcquireUsage consumes one unit of the daily quota for the given date.
// It returns true when the unit was granted, false when the day's count has
// reached ceiling. The day's row is created on first use.
func TryAcquireUsage(ctx context.Context, db *gorm.DB, date string, ceiling int) (bool, error) {
	granted := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure today's row exists; a concurrent insert is fine.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&domain.UsageCounter{Date: date, Count: 0, UpdatedAt: time.Now().UTC()}).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.UsageCounter{}).
			Where("date = ? AND count < ?", date, ceiling).
			UpdateColumns(map[string]any{
				"count":      gorm.Expr("count + 1"),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		granted = res.RowsAffected == 1
		return nil
	})
	return granted, err
}

// GetUsage returns the current count for a date, zero when no row exists.
func GetUsage(ctx context.Context, db *gorm.DB, date string) (int, error) {
	var row domain.UsageCounter
	err := db.WithContext(ctx).Where("date = ?", date).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return row.Count, nil
}
