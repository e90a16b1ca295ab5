// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, compression, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/dryanez/MrcarCotizacion/internal/config"
	"github.com/dryanez/MrcarCotizacion/internal/domain"
	"github.com/dryanez/MrcarCotizacion/internal/http/handlers"
	"github.com/dryanez/MrcarCotizacion/internal/http/middleware"
	"github.com/dryanez/MrcarCotizacion/internal/pricing"
	"github.com/dryanez/MrcarCotizacion/internal/repo"
	"github.com/dryanez/MrcarCotizacion/internal/scrape"
	"github.com/dryanez/MrcarCotizacion/internal/services"
)

// vehicleRepoShim adapts the repository free functions to the
// services.VehicleRepo interface expected by the VehicleService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type vehicleRepoShim struct{}

// GetVehicle proxies repo.GetVehicle.
func (vehicleRepoShim) GetVehicle(ctx context.Context, db *gorm.DB, plate string) (*domain.Vehicle, error) {
	return repo.GetVehicle(ctx, db, plate)
}

// UpsertVehicle proxies repo.UpsertVehicle.
func (vehicleRepoShim) UpsertVehicle(ctx context.Context, db *gorm.DB, v *domain.Vehicle) error {
	return repo.UpsertVehicle(ctx, db, v)
}

// CountVehicles proxies repo.CountVehicles (pagination support).
func (vehicleRepoShim) CountVehicles(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountVehicles(ctx, db)
}

// ListVehiclesPage proxies repo.ListVehiclesPage (pagination support).
func (vehicleRepoShim) ListVehiclesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Vehicle, error) {
	return repo.ListVehiclesPage(ctx, db, offset, limit)
}

// usageRepoShim adapts the usage-counter free functions to the
// services.UsageRepo interface expected by the RateGate.
type usageRepoShim struct{}

// TryAcquireUsage proxies repo.TryAcquireUsage.
func (usageRepoShim) TryAcquireUsage(ctx context.Context, db *gorm.DB, date string, ceiling int) (bool, error) {
	return repo.TryAcquireUsage(ctx, db, date, ceiling)
}

// GetUsage proxies repo.GetUsage.
func (usageRepoShim) GetUsage(ctx context.Context, db *gorm.DB, date string) (int, error) {
	return repo.GetUsage(ctx, db, date)
}

// marketShim adapts the concrete *scrape.SampleStream return of the market
// scraper to the services.SampleStream interface.
type marketShim struct{ m *scrape.Market }

// Sample proxies Market.Sample.
func (s marketShim) Sample(ctx context.Context, q scrape.Query) services.SampleStream {
	return s.m.Sample(ctx, q)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, compression, health and metrics endpoints, and
// then mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per client IP; independent of the daily scrape quota)
//  8. Gzip compression
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, browser *scrape.Browser, cfg config.Config) error {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (owner names and RUTs never
	//    reach the logs)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (64 KiB; the API is GET-only)
	r.Use(limitBody(64 << 10))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 8) Compress responses; vehicle lists and quote payloads are JSON
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (optional)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← scrapers/engine/repo/db
	gate := services.NewRateGate(db, usageRepoShim{}, cfg.DailyQuota)
	registry := scrape.NewRegistry(cfg.Registry, browser, gate)
	market := scrape.NewMarket(cfg.Market, browser, gate)

	curve, err := pricing.NewCurve(cfg.Pricing)
	if err != nil {
		return err
	}
	engine, err := pricing.NewEngine(cfg.Pricing, curve)
	if err != nil {
		return err
	}

	vehicleSvc := services.NewVehicleService(db, vehicleRepoShim{}, registry)
	quoteSvc := services.NewQuoteService(marketShim{market}, engine, cfg.Market.MaxSamples)
	h := handlers.New(vehicleSvc, quoteSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/vehicle/:plate", h.GetVehicle)
		api.GET("/vehicles", h.ListVehicles)
		api.GET("/market-price", h.GetMarketPrice)
	}
	return nil
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
