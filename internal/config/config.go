// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database path, scrape targets and
// selectors, the daily scrape quota, and the pricing model parameters.
//
// The configuration is constructed once at process start (see cmd/server and
// cmd/mrcar) and passed by reference into each component; nothing below this
// package reads the environment on its own.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "mrcar-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// BrowserConfig controls the shared headless-browser runtime used by both
// scrapers. Sessions hold an OS process each, so MaxSessions bounds how many
// pages may be driven concurrently.
type BrowserConfig struct {
	Bin         string        // explicit Chromium binary; empty lets rod resolve one
	Headless    bool          // run without a visible window
	UserAgent   string        // presented to the scraped sites
	MaxSessions int           // concurrent page ceiling (>= 1)
	NavTimeout  time.Duration // per-navigation/DOM-wait budget
}

// RegistryConfig locates the plate-lookup site and the structural selectors
// used to pull fields out of its rendered markup. Selectors are configuration
// rather than code because the page is server-rendered HTML whose exact
// markup drifts between deployments of the third-party site.
type RegistryConfig struct {
	URL            string // lookup page (e.g. https://www.patentechile.com/)
	SearchInputSel string // plate input element
	SearchBtnSel   string // submit button element
	ResultsSel     string // results table present => record found
	NoResultsSel   string // explicit empty-result marker
	Retries        int    // transient-failure retries (attempts = retries+1)
	RetryBackoff   time.Duration
}

// MarketConfig locates the listings site sampled for comparable asking
// prices. MinPrice/MaxPrice bound what counts as a plausible car price when
// harvesting peso amounts from the page (spam and ad figures fall outside).
type MarketConfig struct {
	BaseURL      string // e.g. https://www.autofact.cl/valor-comercial-autos
	PriceSel     string // optional element scope for prices; empty scans body text
	MinPrice     int64  // CLP
	MaxPrice     int64  // CLP
	MaxSamples   int    // bounded prefix consumed per quote
	Retries      int
	RetryBackoff time.Duration
}

// PricingConfig carries the quote formula parameters and the depreciation
// curve used when no live market data exists. All rates are parsed as
// decimal strings to avoid float drift in money math.
type PricingConfig struct {
	OfferMultiplier string // immediate offer share of market price (0.52)
	OfferRoundTo    int64  // round offer to nearest multiple (100000)
	TierThreshold   int64  // strict > threshold switches formulas (8000000)
	LiquidationRate string // retained share above threshold (0.94645)
	FlatFee         int64  // CLP subtracted at or below threshold (428400)

	// Depreciation fallback curve.
	BaseNewPrice int64  // CLP price assumed for a new vehicle
	AnnualDecay  string // multiplicative loss per year of age (e.g. 0.12)
	FloorPrice   int64  // CLP lower clamp for very old vehicles
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string // base path for API routes

	// App
	DBPath     string // SQLite path
	DailyQuota int    // RateGate ceiling per calendar day

	// Edge rate limiting (HTTP, per client; independent of DailyQuota)
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Scraping and pricing
	Browser  BrowserConfig
	Registry RegistryConfig
	Market   MarketConfig
	Pricing  PricingConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 40*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// App
		DBPath:     getenv("DB_PATH", "vehicles.db"),
		DailyQuota: getint("DAILY_SCRAPE_QUOTA", 1000),

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Browser runtime shared by both scrapers
		Browser: BrowserConfig{
			Bin:         getenv("BROWSER_BIN", ""),
			Headless:    getbool("BROWSER_HEADLESS", true),
			UserAgent:   getenv("BROWSER_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
			MaxSessions: getint("BROWSER_MAX_SESSIONS", 2),
			NavTimeout:  getdur("BROWSER_NAV_TIMEOUT", 25*time.Second),
		},

		// Registry lookup site
		Registry: RegistryConfig{
			URL:            getenv("REGISTRY_URL", "https://www.patentechile.com/"),
			SearchInputSel: getenv("REGISTRY_INPUT_SELECTOR", "#inputTerm"),
			SearchBtnSel:   getenv("REGISTRY_BUTTON_SELECTOR", "#searchBtn"),
			ResultsSel:     getenv("REGISTRY_RESULTS_SELECTOR", "table#tbl-results"),
			NoResultsSel:   getenv("REGISTRY_NORESULTS_SELECTOR", "div.no-results"),
			Retries:        getint("REGISTRY_RETRIES", 2),
			RetryBackoff:   getdur("REGISTRY_RETRY_BACKOFF", 2*time.Second),
		},

		// Market listings site
		Market: MarketConfig{
			BaseURL:      getenv("MARKET_URL", "https://www.autofact.cl/valor-comercial-autos"),
			PriceSel:     getenv("MARKET_PRICE_SELECTOR", ""),
			MinPrice:     getint64("MARKET_MIN_PRICE", 1_500_000),
			MaxPrice:     getint64("MARKET_MAX_PRICE", 100_000_000),
			MaxSamples:   getint("MARKET_MAX_SAMPLES", 10),
			Retries:      getint("MARKET_RETRIES", 2),
			RetryBackoff: getdur("MARKET_RETRY_BACKOFF", 2*time.Second),
		},

		// Pricing model
		Pricing: PricingConfig{
			OfferMultiplier: getenv("OFFER_MULTIPLIER", "0.52"),
			OfferRoundTo:    getint64("OFFER_ROUND_TO", 100_000),
			TierThreshold:   getint64("CONSIGNMENT_THRESHOLD", 8_000_000),
			LiquidationRate: getenv("LIQUIDATION_RATE", "0.94645"),
			FlatFee:         getint64("CONSIGNMENT_FLAT_FEE", 428_400),
			BaseNewPrice:    getint64("DEPRECIATION_BASE_PRICE", 18_000_000),
			AnnualDecay:     getenv("DEPRECIATION_ANNUAL_DECAY", "0.12"),
			FloorPrice:      getint64("DEPRECIATION_FLOOR_PRICE", 1_500_000),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "mrcar-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.DailyQuota < 1 {
		return cfg, errors.New("DAILY_SCRAPE_QUOTA must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.Browser.MaxSessions < 1 {
		return cfg, errors.New("BROWSER_MAX_SESSIONS must be >= 1")
	}
	if cfg.Browser.NavTimeout <= 0 {
		return cfg, errors.New("BROWSER_NAV_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(cfg.Registry.URL) == "" {
		return cfg, errors.New("REGISTRY_URL must not be empty")
	}
	if cfg.Registry.Retries < 0 || cfg.Market.Retries < 0 {
		return cfg, errors.New("scrape retry counts must be >= 0")
	}
	if strings.TrimSpace(cfg.Market.BaseURL) == "" {
		return cfg, errors.New("MARKET_URL must not be empty")
	}
	if cfg.Market.MinPrice <= 0 || cfg.Market.MaxPrice <= cfg.Market.MinPrice {
		return cfg, errors.New("MARKET_MIN_PRICE/MARKET_MAX_PRICE must describe a positive range")
	}
	if cfg.Market.MaxSamples < 1 {
		return cfg, errors.New("MARKET_MAX_SAMPLES must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	// Pricing parameters are validated where money math happens
	// (pricing.NewEngine) so the CLI and server report the same error.

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
