// Vehicle HTTP handlers.
//
// This file exposes REST endpoints for vehicle resources:
//   - GET /vehicle/{plate}   (resolve a plate, scraping the registry on miss)
//   - GET /vehicles          (list cached vehicles, paginated, ETag support)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. The full scrape error taxonomy is
// mapped here so clients can distinguish a missing plate from an exhausted
// quota or an unavailable browser.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
	"github.com/dryanez/MrcarCotizacion/internal/repo"
	"github.com/dryanez/MrcarCotizacion/internal/scrape"
	"github.com/dryanez/MrcarCotizacion/internal/services"
	"github.com/dryanez/MrcarCotizacion/internal/utils"
)

//
// Service contracts (context-aware)
//

// VehicleService defines plate resolution operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type VehicleService interface {
	// GetOrResolve returns the vehicle for plate, scraping the registry on a
	// cache miss. refresh forces a fresh scrape.
	GetOrResolve(ctx context.Context, plate string, refresh bool) (*domain.Vehicle, error)
	// ListPage returns a page of cached vehicles and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Vehicle, int64, error)
}

// QuoteService defines pricing operations consumed by HTTP handlers.
type QuoteService interface {
	// QuoteFor prices the given vehicle from live market samples or the
	// depreciation fallback.
	QuoteFor(ctx context.Context, v *domain.Vehicle) (*domain.PriceQuote, *services.MarketSummary, error)
	// QuoteQuery prices an ad-hoc vehicle description.
	QuoteQuery(ctx context.Context, q scrape.Query) (*domain.PriceQuote, *services.MarketSummary, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for vehicles and quotes. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	vehicleSvc VehicleService
	quoteSvc   QuoteService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(vehicleSvc VehicleService, quoteSvc QuoteService) *Handlers {
	return &Handlers{vehicleSvc: vehicleSvc, quoteSvc: quoteSvc}
}

//
// DTOs
//

// VehicleResponse combines the resolved vehicle with its resale quote.
type VehicleResponse struct {
	Vehicle *domain.Vehicle         `json:"vehicle"`
	Quote   *domain.PriceQuote      `json:"quote,omitempty"`
	Market  *services.MarketSummary `json:"market,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListVehiclesResponse wraps a page of cached vehicles and pagination
// information.
type ListVehiclesResponse struct {
	Vehicles   []domain.Vehicle `json:"vehicles"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// failResolve maps the resolution error taxonomy onto HTTP statuses and
// stable codes. Quotes reuse it since sampling shares the same taxonomy.
func failResolve(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidPlate):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "plate must contain letters and digits only")
	case errors.Is(err, services.ErrVehicleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "vehicle not found in registry")
	case errors.Is(err, services.ErrQuotaExhausted):
		fail(c, http.StatusTooManyRequests, ErrCodeQuotaExhausted, "daily scrape quota exhausted")
	case errors.Is(err, scrape.ErrDriverUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeDriverUnavailable, "browser driver unavailable")
	case scrape.IsTransient(err):
		fail(c, http.StatusBadGateway, ErrCodeScrapeFailed, "upstream site did not answer")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeResolveFailed, err.Error())
	}
}

//
// Handlers
//

// GetVehicle godoc
// @ID          getVehicle
// @Summary     Resolve a license plate
// @Description Returns the vehicle identified by the plate plus its resale quote, scraping the civil registry on a cache miss.
// @Tags        Vehicles
// @Produce     json
//
// @Param       plate    path   string  true  "Chilean license plate"  example(HVLS65)
// @Param       refresh  query  bool    false "Force a fresh registry scrape"  default(false)
//
// @Success     200  {object} handlers.VehicleResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Plate not registered"
// @Failure     429  {object} handlers.ErrorResponse "Daily quota exhausted"
// @Failure     502  {object} handlers.ErrorResponse "Upstream site failure"
// @Failure     503  {object} handlers.ErrorResponse "Browser driver unavailable"
// @Router      /vehicle/{plate} [get]
func (h *Handlers) GetVehicle(c *gin.Context) {
	ctx := c.Request.Context()
	plate := strings.TrimSpace(c.Param("plate"))
	refresh := strings.EqualFold(c.Query("refresh"), "true")

	v, err := h.vehicleSvc.GetOrResolve(ctx, plate, refresh)
	if err != nil {
		failResolve(c, err)
		return
	}

	resp := VehicleResponse{Vehicle: v}
	if h.quoteSvc != nil {
		// Quotes are best effort: the vehicle itself is still worth
		// returning when the market site is down or quota ran out.
		if quote, market, err := h.quoteSvc.QuoteFor(ctx, v); err == nil {
			resp.Quote = quote
			resp.Market = market
		}
	}
	ok(c, http.StatusOK, resp)
}

// ListVehicles godoc
// @ID          listVehicles
// @Summary     List cached vehicles (paginated)
// @Description Returns a page of locally cached vehicles. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Vehicles
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListVehiclesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /vehicles [get]
func (h *Handlers) ListVehicles(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.vehicleSvc.(*services.VehicleService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.VehiclesStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"vehicles:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.vehicleSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListVehiclesResponse{
		Vehicles: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}
