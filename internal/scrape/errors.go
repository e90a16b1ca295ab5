// Package scrape drives headless-browser sessions against the third-party
// registry and market-listing sites and extracts structured data from their
// rendered markup. The sites' HTML is not under our control, so parsing goes
// through configurable structural selectors and every scraper distinguishes
// three failure classes:
//
//   - ErrNotFound: the site legitimately has no record. Terminal, not an
//     error condition for callers.
//   - *ScrapeError: transient trouble (timeout, navigation failure,
//     unexpected DOM shape). Retried locally with bounded attempts before
//     being surfaced.
//   - ErrDriverUnavailable: the browser runtime cannot be started or
//     connected at all. Fatal, never retried.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dryanez/MrcarCotizacion/internal/observability"
)

// ErrNotFound reports that the registry has no record for the plate. This is
// a clean empty result, not a failure.
var ErrNotFound = errors.New("registry has no record for this plate")

// ErrDriverUnavailable reports that the browser-automation runtime could not
// be launched or connected (binary missing or incompatible). It propagates
// immediately and must never be retried.
var ErrDriverUnavailable = errors.New("browser runtime unavailable")

// ScrapeError wraps a transient scraping failure: navigation timeout,
// network trouble, or markup that no longer matches the configured
// selectors. Callers may retry with bounded attempts.
type ScrapeError struct {
	Site string // host being scraped
	Op   string // step that failed, e.g. "wait results"
	Err  error  // underlying cause, may be nil for pure DOM-shape failures
}

// Error implements the error interface.
func (e *ScrapeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("scrape %s: %s", e.Site, e.Op)
	}
	return fmt.Sprintf("scrape %s: %s: %v", e.Site, e.Op, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *ScrapeError) Unwrap() error { return e.Err }

// transientErr builds a *ScrapeError for a failed step.
func transientErr(site, op string, err error) error {
	return &ScrapeError{Site: site, Op: op, Err: err}
}

// IsTransient reports whether err is a retryable scrape failure.
func IsTransient(err error) bool {
	var se *ScrapeError
	return errors.As(err, &se)
}

// Gate guards outbound scrape attempts. TryAcquire returns nil when a unit
// of quota was granted and a distinguishable error (the caller's quota
// sentinel) when the daily ceiling is reached. Scrapers consult the gate
// before any navigation so exhaustion short-circuits cheaply.
type Gate interface {
	TryAcquire(ctx context.Context) error
}

// nopGate grants every request; used by the CLI importer and by tests that
// exercise parsing only.
type nopGate struct{}

func (nopGate) TryAcquire(context.Context) error { return nil }

// NopGate returns a Gate that never denies.
func NopGate() Gate { return nopGate{} }

// observeAttempt records one scrape attempt's outcome for the site.
func observeAttempt(site string, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrDriverUnavailable):
		outcome = "driver"
	case IsTransient(err):
		outcome = "transient"
	case err != nil:
		outcome = "other"
	}
	observability.ScrapeAttempts.WithLabelValues(site, outcome).Inc()
}

// withRetry runs fn up to attempts times, sleeping backoff between tries.
// Only transient failures (see IsTransient) are retried; anything else,
// including ErrNotFound, ErrDriverUnavailable and gate denials, surfaces on
// the spot. Context cancellation stops the loop.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(); err == nil || !IsTransient(err) {
			return err
		}
	}
	return err
}
