// Registry scraper.
//
// Resolves a plate against the government lookup site: submit the plate into
// the search form, wait for either the results table or the explicit
// no-results marker, then pull labeled table cells out of the rendered HTML.
// Field extraction works on label text ("Marca", "Modelo", ...) rather than
// cell positions so minor markup drift does not break it; the selectors
// themselves come from configuration.
package scrape

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dryanez/MrcarCotizacion/internal/config"
	"github.com/dryanez/MrcarCotizacion/internal/domain"
)

// SourceScrape marks vehicle rows resolved by live scrape, as opposed to
// rows loaded from a bulk registry export file.
const SourceScrape = "scrape"

// ErrEmptyPlate is returned for a plate that normalizes to nothing.
var ErrEmptyPlate = errors.New("plate is empty")

// yearRE extracts a plausible manufacturing year from a cell that may carry
// extra text (e.g. "2006" or "2025 (PAGO TOTAL)").
var yearRE = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Registry resolves plates by driving the lookup site in a browser session.
type Registry struct {
	cfg     config.RegistryConfig
	browser *Browser
	gate    Gate
	site    string
}

// NewRegistry builds a Registry over the shared browser. Every resolution
// attempt consumes one unit from gate before navigating.
func NewRegistry(cfg config.RegistryConfig, b *Browser, gate Gate) *Registry {
	if gate == nil {
		gate = NopGate()
	}
	return &Registry{cfg: cfg, browser: b, gate: gate, site: hostOf(cfg.URL)}
}

// Resolve looks the plate up on the registry site.
//
// Outcomes:
//   - (*domain.Vehicle, nil) on success;
//   - ErrNotFound when the registry has no record (clean empty result);
//   - the gate's own error when the daily quota is exhausted;
//   - ErrDriverUnavailable when the browser cannot start (not retried);
//   - *ScrapeError after the configured retries are spent on transient
//     failures.
func (r *Registry) Resolve(ctx context.Context, plate string) (*domain.Vehicle, error) {
	plate = domain.NormalizePlate(plate)
	if plate == "" {
		return nil, ErrEmptyPlate
	}

	tr := otel.Tracer("scrape/Registry")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(attribute.String("vehicle.plate", plate)),
	)
	defer span.End()

	var rec *domain.Vehicle
	err := withRetry(ctx, r.cfg.Retries+1, r.cfg.RetryBackoff, func() error {
		// Quota is consumed per attempt; exhaustion short-circuits before
		// any navigation.
		if err := r.gate.TryAcquire(ctx); err != nil {
			return err
		}
		v, err := r.attempt(ctx, plate)
		observeAttempt(r.site, err)
		if err != nil {
			return err
		}
		rec = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// attempt performs a single browser round trip for the plate.
func (r *Registry) attempt(ctx context.Context, plate string) (*domain.Vehicle, error) {
	page, release, err := r.browser.Page(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	nav := page.Timeout(r.browser.NavTimeout())
	if err := nav.Navigate(r.cfg.URL); err != nil {
		return nil, transientErr(r.site, "navigate", err)
	}
	if err := nav.WaitLoad(); err != nil {
		return nil, transientErr(r.site, "wait load", err)
	}

	input, err := nav.Element(r.cfg.SearchInputSel)
	if err != nil {
		return nil, transientErr(r.site, "search input not found", err)
	}
	_ = input.SelectAllText() // best-effort clear; a fresh page is empty anyway
	if err := input.Input(plate); err != nil {
		return nil, transientErr(r.site, "fill plate", err)
	}

	btn, err := nav.Element(r.cfg.SearchBtnSel)
	if err != nil {
		return nil, transientErr(r.site, "search button not found", err)
	}
	// Click through JS so ad overlays cannot intercept the tap.
	if _, err := btn.Eval(`() => this.click()`); err != nil {
		return nil, transientErr(r.site, "click search", err)
	}

	// Wait for whichever terminal state the page reaches first.
	waitSel := r.cfg.ResultsSel + ", " + r.cfg.NoResultsSel
	el, err := nav.Element(waitSel)
	if err != nil {
		return nil, transientErr(r.site, "results never appeared", err)
	}
	if ok, _ := el.Matches(r.cfg.NoResultsSel); ok {
		return nil, ErrNotFound
	}

	html, err := page.HTML()
	if err != nil {
		return nil, transientErr(r.site, "read page", err)
	}

	v, err := parseRegistryHTML(html, r.cfg.ResultsSel, r.site)
	if err != nil {
		return nil, err
	}
	if v.Make == "" && v.Model == "" && v.Year == 0 {
		// Table rendered but carried no vehicle section: treat as no record.
		return nil, ErrNotFound
	}
	v.Plate = plate
	v.SourceFile = SourceScrape
	return v, nil
}

// parseRegistryHTML extracts vehicle fields from the rendered results table.
// Rows are label/value pairs grouped under colspan section headers; the year
// is only read inside the vehicle-information section because the payment
// section repeats "Año" with a different meaning.
func parseRegistryHTML(html, tableSel, site string) (*domain.Vehicle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, transientErr(site, "parse html", err)
	}
	table := doc.Find(tableSel).First()
	if table.Length() == 0 {
		return nil, transientErr(site, "results table missing", nil)
	}

	v := &domain.Vehicle{}
	inVehicleSection := false
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")

		// Section header rows span both columns.
		if cells.Length() == 1 {
			if colspan, _ := cells.Attr("colspan"); colspan == "2" {
				header := strings.ToLower(cellText(cells))
				inVehicleSection = strings.Contains(header, "vehicular")
			}
			return
		}
		if cells.Length() != 2 {
			return
		}

		label := strings.ToLower(cellText(cells.Eq(0)))
		value := cellText(cells.Eq(1))
		switch {
		case strings.Contains(label, "marca"):
			v.Make = value
		case strings.Contains(label, "modelo"):
			v.Model = value
		case strings.Contains(label, "año") || strings.Contains(label, "ano"):
			if inVehicleSection {
				if m := yearRE.FindString(value); m != "" {
					v.Year, _ = strconv.Atoi(m)
				}
			}
		case strings.Contains(label, "tipo"):
			v.VehicleTypeCode = value
		case strings.Contains(label, "combustible"):
			v.FuelCode = value
		case strings.Contains(label, "nombre"):
			v.OwnerName = value
		case strings.Contains(label, "rut"):
			v.OwnerRUT = value
		}
	})
	return v, nil
}

// cellText trims a cell's text and drops non-breaking spaces.
func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(strings.ReplaceAll(s.Text(), " ", ""))
}

// hostOf reduces a configured URL to its host for error and log labels.
func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return raw
}
