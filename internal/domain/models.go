// Package domain defines the persistence models for vehicles and daily
// scrape-usage accounting, plus the transient value types produced by the
// market sampler and the pricing engine. Persistent types are mapped with
// GORM and form the core data layer of the quoting application.
package domain

import (
	"regexp"
	"strings"
	"time"
)

// Vehicle is the registry record resolved for a license plate. One row per
// plate; created on the first successful registry resolution and only
// overwritten by a forced re-scrape (last scrape wins).
//
// Fields:
//   - Plate: normalized plate string (uppercase, punctuation stripped);
//     primary key for all lookups.
//   - Make / Model / Year: identification as published by the registry.
//   - VehicleTypeCode / FuelCode / ServiceCode / RegionCode: registry
//     classification codes (present in bulk SGPRT exports, may be empty for
//     records obtained by live scrape).
//   - OwnerName / OwnerRUT: registered keeper as shown by the registry.
//     Excluded from JSON responses; log output redacts them as well.
//   - SourceFile: bulk export file the row came from, or "scrape" for rows
//     resolved live.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Vehicle struct {
	Plate           string    `json:"plate"             gorm:"type:varchar(12);primaryKey"`
	Make            string    `json:"make"              gorm:"type:varchar(64)"`
	Model           string    `json:"model"             gorm:"type:varchar(128)"`
	Year            int       `json:"year"`
	VehicleTypeCode string    `json:"vehicle_type_code" gorm:"type:varchar(16)"`
	FuelCode        string    `json:"fuel_code"         gorm:"type:varchar(16)"`
	ServiceCode     string    `json:"service_code"      gorm:"type:varchar(16)"`
	RegionCode      string    `json:"region_code"       gorm:"type:varchar(16)"`
	OwnerName       string    `json:"-"                 gorm:"type:varchar(128)"`
	OwnerRUT        string    `json:"-"                 gorm:"type:varchar(16)"`
	SourceFile      string    `json:"source_file"       gorm:"type:varchar(128)"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for Vehicle.
func (Vehicle) TableName() string { return "vehicles" }

// UsageCounter tracks outbound scrape calls per calendar day. One row per
// day, keyed by the ISO date; the counter resets implicitly when the date
// rolls over. Increments are performed with a conditional UPDATE so a race
// for the last unit below the ceiling cannot grant twice.
type UsageCounter struct {
	Date      string    `json:"date"  gorm:"type:char(10);primaryKey"` // YYYY-MM-DD
	Count     int       `json:"count" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for UsageCounter.
func (UsageCounter) TableName() string { return "usage_counters" }

// MarketSample is one observed asking price for a comparable vehicle. It is
// produced per pricing request by the market scraper and is not persisted;
// the quote service reduces a bounded prefix of samples to a median.
type MarketSample struct {
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	MileageKM int       `json:"mileage_km,omitempty"`
	Price     int64     `json:"price"` // CLP
	Source    string    `json:"source"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Consignment tier labels for PriceQuote.ConsignmentType.
const (
	ConsignmentPercentage = "PERCENTAGE_BASED"
	ConsignmentFixedFee   = "FIXED_FEE"
)

// PriceQuote holds the three derived figures for a vehicle. It is a pure
// function of the market price, recomputed per request, with no identity of
// its own. All amounts are whole Chilean pesos.
//
// Estimated is true when no live listings matched and the market price was
// produced by the configured depreciation curve instead.
type PriceQuote struct {
	MarketPrice            int64  `json:"market_price"`
	ImmediateOffer         int64  `json:"immediate_offer"`
	ConsignmentLiquidation int64  `json:"consignment_liquidation"`
	ConsignmentType        string `json:"consignment_type"`
	Estimated              bool   `json:"estimated"`
}

// plateRE strips everything that is not an uppercase letter or digit.
var plateRE = regexp.MustCompile(`[^A-Z0-9]+`)

// NormalizePlate uppercases a raw plate string and removes separators and
// whitespace ("lx-bw 68" -> "LXBW68"). The normalized form is the primary
// key for every vehicle lookup.
func NormalizePlate(raw string) string {
	return plateRE.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
}
