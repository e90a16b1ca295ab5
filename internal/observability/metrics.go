// Package observability – domain metrics
//
// Prometheus collectors for the scraping pipeline, complementing the generic
// HTTP metrics in the middleware package. Label cardinality is kept bounded:
// "site" is the upstream hostname and "outcome" one of a small fixed set.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// ScrapeAttempts counts scrape attempts by site and outcome
	// (ok, not_found, transient, driver).
	ScrapeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_attempts_total",
			Help: "Total number of scrape attempts by site and outcome.",
		},
		[]string{"site", "outcome"},
	)

	// QuotaDecisions counts daily-quota acquisitions by result
	// (granted, denied).
	QuotaDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_quota_decisions_total",
			Help: "Total number of daily scrape quota decisions.",
		},
		[]string{"result"},
	)

	// VehicleLookups counts plate lookups by source (cache, scrape).
	VehicleLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vehicle_lookups_total",
			Help: "Total number of plate lookups by source.",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(ScrapeAttempts, QuotaDecisions, VehicleLookups)
}
