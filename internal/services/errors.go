// Package services – domain errors
//
// Sentinel errors shared across the service layer so HTTP handlers and CLI
// commands can map predictable failures to results consistently. Scraper
// failures keep their own taxonomy in the scrape package; this file covers
// the conditions the services themselves decide.
package services

import "errors"

var (
	// ErrVehicleNotFound is returned when the plate is absent from both the
	// local store and the civil registry. Negative results are not cached, so
	// a later lookup scrapes again (and spends quota) in case the plate has
	// since been registered.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrInvalidPlate is returned for plates that normalize to an empty or
	// implausible string before any scraping is attempted.
	ErrInvalidPlate = errors.New("invalid plate")

	// ErrQuotaExhausted is returned when the daily scraping allowance is
	// spent. No scraping side effects occur once it is raised.
	ErrQuotaExhausted = errors.New("daily scrape quota exhausted")
)
