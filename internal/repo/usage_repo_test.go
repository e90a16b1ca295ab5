package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
)

func TestUsageDate_UTC(t *testing.T) {
	// 23:30 in Santiago (UTC-3/-4) is already the next day in UTC.
	loc := time.FixedZone("CLT", -4*3600)
	ts := time.Date(2026, 3, 14, 23, 30, 0, 0, loc)
	if got := UsageDate(ts); got != "2026-03-15" {
		t.Fatalf("UsageDate = %q, want 2026-03-15", got)
	}
}

func TestTryAcquireUsage_GrantsUpToCeiling(t *testing.T) {
	db := newRepoDB(t, &domain.UsageCounter{})
	ctx := context.Background()
	const ceiling = 3

	for i := 0; i < ceiling; i++ {
		granted, err := TryAcquireUsage(ctx, db, "2026-08-30", ceiling)
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		if !granted {
			t.Fatalf("acquire %d: expected grant below ceiling", i)
		}
	}

	granted, err := TryAcquireUsage(ctx, db, "2026-08-30", ceiling)
	if err != nil {
		t.Fatalf("acquire at ceiling: %v", err)
	}
	if granted {
		t.Fatalf("expected denial once ceiling reached")
	}

	// A denial leaves the counter untouched.
	count, err := GetUsage(ctx, db, "2026-08-30")
	if err != nil || count != ceiling {
		t.Fatalf("GetUsage = %d, %v; want %d", count, err, ceiling)
	}
}

func TestTryAcquireUsage_SeparateDays(t *testing.T) {
	db := newRepoDB(t, &domain.UsageCounter{})
	ctx := context.Background()

	if granted, err := TryAcquireUsage(ctx, db, "2026-08-30", 1); err != nil || !granted {
		t.Fatalf("day one: granted=%v err=%v", granted, err)
	}
	if granted, err := TryAcquireUsage(ctx, db, "2026-08-30", 1); err != nil || granted {
		t.Fatalf("day one exhausted: granted=%v err=%v", granted, err)
	}
	// The next day starts from a fresh row.
	if granted, err := TryAcquireUsage(ctx, db, "2026-08-31", 1); err != nil || !granted {
		t.Fatalf("day two: granted=%v err=%v", granted, err)
	}
}

func TestTryAcquireUsage_ConcurrentNeverOvershoots(t *testing.T) {
	db := newRepoDB(t, &domain.UsageCounter{})
	// Serialize connections so concurrent acquirers contend on the row, not
	// on the SQLite file lock.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	ctx := context.Background()
	const (
		ceiling = 5
		callers = 20
	)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		grants  int
		denials int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted, err := TryAcquireUsage(ctx, db, "2026-08-30", ceiling)
			if err != nil {
				t.Errorf("concurrent acquire: %v", err)
				return
			}
			mu.Lock()
			if granted {
				grants++
			} else {
				denials++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if grants != ceiling || denials != callers-ceiling {
		t.Fatalf("grants=%d denials=%d, want %d/%d", grants, denials, ceiling, callers-ceiling)
	}
	count, err := GetUsage(ctx, db, "2026-08-30")
	if err != nil || count != ceiling {
		t.Fatalf("final count = %d, %v; want %d", count, err, ceiling)
	}
}

func TestGetUsage_MissingDayIsZero(t *testing.T) {
	db := newRepoDB(t, &domain.UsageCounter{})
	count, err := GetUsage(context.Background(), db, "1999-01-01")
	if err != nil || count != 0 {
		t.Fatalf("GetUsage = %d, %v; want 0, nil", count, err)
	}
}
