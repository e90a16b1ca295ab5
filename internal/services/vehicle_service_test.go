package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
	"github.com/dryanez/MrcarCotizacion/internal/repo"
	"github.com/dryanez/MrcarCotizacion/internal/scrape"
)

// memVehicleRepo is an in-memory VehicleRepo; the gorm handle is ignored.
type memVehicleRepo struct {
	mu         sync.Mutex
	rows       map[string]domain.Vehicle
	lastOffset int
	lastLimit  int
}

func newMemVehicleRepo() *memVehicleRepo {
	return &memVehicleRepo{rows: make(map[string]domain.Vehicle)}
}

func (r *memVehicleRepo) GetVehicle(_ context.Context, _ *gorm.DB, plate string) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.rows[plate]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := v
	return &out, nil
}

func (r *memVehicleRepo) UpsertVehicle(_ context.Context, _ *gorm.DB, v *domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[v.Plate] = *v
	return nil
}

func (r *memVehicleRepo) CountVehicles(_ context.Context, _ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *memVehicleRepo) ListVehiclesPage(_ context.Context, _ *gorm.DB, offset, limit int) ([]domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastOffset, r.lastLimit = offset, limit
	return nil, nil
}

// stubResolver returns a fixed vehicle or error and counts invocations.
type stubResolver struct {
	calls   atomic.Int64
	vehicle *domain.Vehicle
	err     error
	delay   time.Duration
}

func (s *stubResolver) Resolve(_ context.Context, plate string) (*domain.Vehicle, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	out := *s.vehicle
	out.Plate = plate
	return &out, nil
}

func TestGetOrResolve_InvalidPlate(t *testing.T) {
	svc := NewVehicleService(nil, newMemVehicleRepo(), &stubResolver{})

	for _, plate := range []string{"", "   ", "--- "} {
		if _, err := svc.GetOrResolve(context.Background(), plate, false); !errors.Is(err, ErrInvalidPlate) {
			t.Errorf("plate %q: expected ErrInvalidPlate, got %v", plate, err)
		}
	}
}

func TestGetOrResolve_CacheHitSkipsScrape(t *testing.T) {
	mem := newMemVehicleRepo()
	mem.rows["HVLS65"] = domain.Vehicle{Plate: "HVLS65", Make: "CHEVROLET", Model: "AVEO", Year: 2012}
	res := &stubResolver{}
	svc := NewVehicleService(nil, mem, res)

	v, err := svc.GetOrResolve(context.Background(), "hv-ls-65", false)
	if err != nil {
		t.Fatalf("GetOrResolve: %v", err)
	}
	if v.Make != "CHEVROLET" {
		t.Fatalf("make = %q, want CHEVROLET", v.Make)
	}
	if n := res.calls.Load(); n != 0 {
		t.Fatalf("resolver called %d times on cache hit", n)
	}
}

func TestGetOrResolve_MissScrapesOnceThenCaches(t *testing.T) {
	mem := newMemVehicleRepo()
	res := &stubResolver{vehicle: &domain.Vehicle{Make: "KIA", Model: "SPORTAGE", Year: 2018}}
	svc := NewVehicleService(nil, mem, res)
	ctx := context.Background()

	v, err := svc.GetOrResolve(ctx, "LXBW68", false)
	if err != nil {
		t.Fatalf("first GetOrResolve: %v", err)
	}
	if v.Plate != "LXBW68" || v.Make != "KIA" {
		t.Fatalf("unexpected vehicle %+v", v)
	}
	if _, ok := mem.rows["LXBW68"]; !ok {
		t.Fatal("resolved vehicle was not persisted")
	}

	if _, err := svc.GetOrResolve(ctx, "LXBW68", false); err != nil {
		t.Fatalf("second GetOrResolve: %v", err)
	}
	if n := res.calls.Load(); n != 1 {
		t.Fatalf("resolver called %d times, want 1", n)
	}
}

func TestGetOrResolve_NotFoundMapsToSentinel(t *testing.T) {
	res := &stubResolver{err: scrape.ErrNotFound}
	svc := NewVehicleService(nil, newMemVehicleRepo(), res)

	_, err := svc.GetOrResolve(context.Background(), "ZZZZ99", false)
	if !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("expected ErrVehicleNotFound, got %v", err)
	}

	// A miss is not cached: the plate may be registered later, so a repeat
	// lookup goes back to the registry.
	_, err = svc.GetOrResolve(context.Background(), "ZZZZ99", false)
	if !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("expected ErrVehicleNotFound on repeat, got %v", err)
	}
	if got := res.calls.Load(); got != 2 {
		t.Fatalf("resolver calls = %d, want 2", got)
	}
}

func TestGetOrResolve_ScrapeErrorPropagates(t *testing.T) {
	scrapeErr := &scrape.ScrapeError{Site: "registry.test", Op: "navigate", Err: errors.New("timeout")}
	svc := NewVehicleService(nil, newMemVehicleRepo(), &stubResolver{err: scrapeErr})

	_, err := svc.GetOrResolve(context.Background(), "ZZZZ99", false)
	if !scrape.IsTransient(err) {
		t.Fatalf("expected transient scrape error, got %v", err)
	}
}

func TestGetOrResolve_RefreshBypassesCache(t *testing.T) {
	mem := newMemVehicleRepo()
	mem.rows["HVLS65"] = domain.Vehicle{Plate: "HVLS65", Make: "CHEVROLET", Model: "AVEO", Year: 2012}
	res := &stubResolver{vehicle: &domain.Vehicle{Make: "CHEVROLET", Model: "AVEO II", Year: 2012}}
	svc := NewVehicleService(nil, mem, res)

	v, err := svc.GetOrResolve(context.Background(), "HVLS65", true)
	if err != nil {
		t.Fatalf("GetOrResolve refresh: %v", err)
	}
	if v.Model != "AVEO II" {
		t.Fatalf("model = %q, want refreshed AVEO II", v.Model)
	}
	if n := res.calls.Load(); n != 1 {
		t.Fatalf("resolver called %d times, want 1", n)
	}
	if mem.rows["HVLS65"].Model != "AVEO II" {
		t.Fatal("refreshed row was not persisted")
	}
}

func TestGetOrResolve_ConcurrentCallsShareOneScrape(t *testing.T) {
	mem := newMemVehicleRepo()
	res := &stubResolver{
		vehicle: &domain.Vehicle{Make: "TOYOTA", Model: "YARIS", Year: 2020},
		delay:   20 * time.Millisecond,
	}
	svc := NewVehicleService(nil, mem, res)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.GetOrResolve(context.Background(), "SKRT11", false)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if n := res.calls.Load(); n != 1 {
		t.Fatalf("resolver called %d times for one plate, want 1", n)
	}
}

func TestGet_CacheOnly(t *testing.T) {
	mem := newMemVehicleRepo()
	mem.rows["HVLS65"] = domain.Vehicle{Plate: "HVLS65", Make: "CHEVROLET"}
	res := &stubResolver{}
	svc := NewVehicleService(nil, mem, res)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "HVLS65"); err != nil {
		t.Fatalf("Get cached: %v", err)
	}
	if _, err := svc.Get(ctx, "ZZZZ99"); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("expected ErrVehicleNotFound, got %v", err)
	}
	if n := res.calls.Load(); n != 0 {
		t.Fatalf("Get must never scrape, resolver called %d times", n)
	}
}

func TestSave_NormalizesPlate(t *testing.T) {
	mem := newMemVehicleRepo()
	svc := NewVehicleService(nil, mem, &stubResolver{})

	if err := svc.Save(context.Background(), &domain.Vehicle{Plate: "hv-ls 65", Make: "CHEVROLET"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := mem.rows["HVLS65"]; !ok {
		t.Fatal("row not stored under normalized plate")
	}

	if err := svc.Save(context.Background(), &domain.Vehicle{Plate: "---"}); !errors.Is(err, ErrInvalidPlate) {
		t.Fatalf("expected ErrInvalidPlate, got %v", err)
	}
}

func TestListPage_ClampsPagination(t *testing.T) {
	mem := newMemVehicleRepo()
	svc := NewVehicleService(nil, mem, &stubResolver{})

	if _, _, err := svc.ListPage(context.Background(), 0, -5); err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if mem.lastOffset != 0 || mem.lastLimit != 20 {
		t.Fatalf("offset/limit = %d/%d, want 0/20", mem.lastOffset, mem.lastLimit)
	}

	if _, _, err := svc.ListPage(context.Background(), 3, 10); err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if mem.lastOffset != 20 || mem.lastLimit != 10 {
		t.Fatalf("offset/limit = %d/%d, want 20/10", mem.lastOffset, mem.lastLimit)
	}
}
