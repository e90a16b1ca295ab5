// Market-listings scraper.
//
// Samples comparable asking prices from a Chilean listings site. The site
// publishes valuation pages addressed by make/model/year path segments; a
// page is rendered in the shared browser and every Chilean-peso amount
// ("$X.XXX.XXX") found in it is harvested, bounded to the configured
// plausible price range and deduplicated. When the full model slug yields
// nothing, a simplified slug (first model word) is tried on the same
// session before giving up.
//
// Results come back as a lazy, finite, non-restartable stream; nothing is
// fetched until the first Next call and an empty stream is a valid "no
// market data" outcome, not an error.
package scrape

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dryanez/MrcarCotizacion/internal/config"
	"github.com/dryanez/MrcarCotizacion/internal/domain"
)

// Query identifies the comparable-vehicle population to sample.
type Query struct {
	Make      string
	Model     string
	Year      int
	MileageKM int // optional, 0 when unknown
}

// clpRE matches Chilean peso amounts with thousand separators, e.g.
// "$ 12.490.000".
var clpRE = regexp.MustCompile(`\$\s*(\d{1,3}(?:\.\d{3})+)`)

// engineSizeRE strips displacement suffixes like "1.4" or "2.0 " from model
// names before building URL slugs.
var engineSizeRE = regexp.MustCompile(`\s+\d+\.\d+\b`)

// trimTokens are trim/version words dropped from model slugs; the listings
// site indexes core model names only.
var trimTokens = map[string]struct{}{
	"ls": {}, "lt": {}, "ltz": {}, "se": {}, "ex": {}, "dx": {}, "gl": {},
	"gls": {}, "ii": {}, "iii": {}, "iv": {}, "cargo": {}, "box": {},
	"base": {}, "full": {}, "limited": {}, "sport": {}, "premium": {},
}

// spanishLower folds registry values (uppercase Spanish, may carry Ñ or
// accents) for slug building.
var spanishLower = cases.Lower(language.Spanish)

// Market samples comparable asking prices by rendering listing pages.
type Market struct {
	cfg     config.MarketConfig
	browser *Browser
	gate    Gate
	site    string
}

// NewMarket builds a Market scraper over the shared browser. Every fetch
// attempt consumes one unit from gate, mirroring the registry scraper.
func NewMarket(cfg config.MarketConfig, b *Browser, gate Gate) *Market {
	if gate == nil {
		gate = NopGate()
	}
	return &Market{cfg: cfg, browser: b, gate: gate, site: hostOf(cfg.BaseURL)}
}

// SampleStream is a lazy, finite, non-restartable sequence of market
// samples. It is not safe for concurrent use; a stream belongs to the one
// request that created it.
type SampleStream struct {
	ctx     context.Context
	m       *Market
	query   Query
	fetched bool
	err     error
	samples []domain.MarketSample
	idx     int
}

// Sample returns a stream of asking prices for the queried vehicle. The
// underlying page fetch is deferred until the first Next call.
func (m *Market) Sample(ctx context.Context, q Query) *SampleStream {
	return &SampleStream{ctx: ctx, m: m, query: q}
}

// Next yields the next sample. It returns ok=false when the stream is
// exhausted or fetching failed; check Err to tell the two apart.
func (s *SampleStream) Next() (domain.MarketSample, bool) {
	if !s.fetched {
		s.fetched = true
		s.samples, s.err = s.m.fetch(s.ctx, s.query)
	}
	if s.err != nil || s.idx >= len(s.samples) {
		return domain.MarketSample{}, false
	}
	out := s.samples[s.idx]
	s.idx++
	return out, true
}

// Err reports the fetch failure, if any, once retries were exhausted. An
// exhausted stream with a nil Err means the market legitimately had no
// matching listings.
func (s *SampleStream) Err() error { return s.err }

// fetch renders the valuation page(s) and harvests prices, retrying
// transient failures per the configured policy.
func (m *Market) fetch(ctx context.Context, q Query) ([]domain.MarketSample, error) {
	tr := otel.Tracer("scrape/Market")
	ctx, span := tr.Start(ctx, "Sample",
		trace.WithAttributes(
			attribute.String("vehicle.make", q.Make),
			attribute.String("vehicle.model", q.Model),
			attribute.Int("vehicle.year", q.Year),
		),
	)
	defer span.End()

	var out []domain.MarketSample
	err := withRetry(ctx, m.cfg.Retries+1, m.cfg.RetryBackoff, func() error {
		if err := m.gate.TryAcquire(ctx); err != nil {
			return err
		}
		samples, err := m.attempt(ctx, q)
		observeAttempt(m.site, err)
		if err != nil {
			return err
		}
		out = samples
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// attempt fetches one or two candidate pages in a single browser session:
// the full model slug first, then the simplified slug when the first page
// carried no usable prices.
func (m *Market) attempt(ctx context.Context, q Query) ([]domain.MarketSample, error) {
	page, release, err := m.browser.Page(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	urls := []string{m.listingURL(q.Make, modelSlug(q.Model), q.Year)}
	if simple := simpleModelSlug(q.Model); simple != modelSlug(q.Model) {
		urls = append(urls, m.listingURL(q.Make, simple, q.Year))
	}

	for _, u := range urls {
		nav := page.Timeout(m.browser.NavTimeout())
		if err := nav.Navigate(u); err != nil {
			return nil, transientErr(m.site, "navigate", err)
		}
		if err := nav.WaitLoad(); err != nil {
			return nil, transientErr(m.site, "wait load", err)
		}
		html, err := page.HTML()
		if err != nil {
			return nil, transientErr(m.site, "read page", err)
		}
		prices, err := harvestPrices(html, m.cfg.PriceSel, m.cfg.MinPrice, m.cfg.MaxPrice)
		if err != nil {
			return nil, transientErr(m.site, "parse prices", err)
		}
		if len(prices) > 0 {
			return m.toSamples(q, prices), nil
		}
	}
	// No listings matched: a valid empty result.
	return nil, nil
}

// toSamples wraps harvested prices into MarketSample values.
func (m *Market) toSamples(q Query, prices []int64) []domain.MarketSample {
	now := time.Now().UTC()
	out := make([]domain.MarketSample, 0, len(prices))
	for _, p := range prices {
		out = append(out, domain.MarketSample{
			Make:      q.Make,
			Model:     q.Model,
			Year:      q.Year,
			MileageKM: q.MileageKM,
			Price:     p,
			Source:    m.site,
			ScrapedAt: now,
		})
	}
	return out
}

// listingURL builds the valuation page path for a make/model/year triple.
func (m *Market) listingURL(make, modelSlug string, year int) string {
	return fmt.Sprintf("%s/%s/%s/%d",
		strings.TrimRight(m.cfg.BaseURL, "/"),
		slugToken(make), modelSlug, year)
}

// harvestPrices extracts deduplicated peso amounts inside [min, max] from a
// rendered page, sorted ascending for deterministic downstream math. When
// scopeSel is set only that element's text is scanned, otherwise the whole
// document.
func harvestPrices(html, scopeSel string, min, max int64) ([]int64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	text := doc.Text()
	if scopeSel != "" {
		if scope := doc.Find(scopeSel); scope.Length() > 0 {
			text = scope.Text()
		}
	}

	seen := make(map[int64]struct{})
	var out []int64
	for _, match := range clpRE.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(match[1], ".", "")
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if price < min || price > max {
			continue
		}
		if _, dup := seen[price]; dup {
			continue
		}
		seen[price] = struct{}{}
		out = append(out, price)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// modelSlug reduces a registry model string ("AVEO II LS 1.4") to the URL
// token the listings site indexes it under ("aveo").
func modelSlug(model string) string {
	s := spanishLower.String(strings.TrimSpace(model))
	s = engineSizeRE.ReplaceAllString(s, "")

	words := make([]string, 0, 4)
	for _, w := range strings.Fields(s) {
		if _, drop := trimTokens[w]; drop {
			continue
		}
		words = append(words, w)
	}
	if len(words) > 2 {
		words = words[:2]
	}
	return slugToken(strings.Join(words, " "))
}

// simpleModelSlug keeps only the first word of the model, the fallback the
// listings site resolves most reliably.
func simpleModelSlug(model string) string {
	fields := strings.Fields(spanishLower.String(strings.TrimSpace(model)))
	if len(fields) == 0 {
		return ""
	}
	return slugToken(fields[0])
}

// slugToken lowercases and normalizes separators to underscores.
var multiUnderscoreRE = regexp.MustCompile(`_+`)

func slugToken(s string) string {
	s = spanishLower.String(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return strings.Trim(multiUnderscoreRE.ReplaceAllString(s, "_"), "_")
}
