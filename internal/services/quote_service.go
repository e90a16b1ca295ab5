// Package services – QuoteService
//
// QuoteService turns a resolved vehicle into a resale quote. It drains the
// market sampler's lazy stream up to a cap, takes the median of the sampled
// asking prices and hands it to the pricing engine; when the market has no
// comparable listings the engine falls back to its depreciation curve and
// the quote is flagged as estimated.
package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
	"github.com/dryanez/MrcarCotizacion/internal/pricing"
	"github.com/dryanez/MrcarCotizacion/internal/scrape"
)

// SampleStream is a lazy, finite sequence of market samples. Next reports
// ok=false on exhaustion or failure; Err distinguishes the two.
type SampleStream interface {
	Next() (domain.MarketSample, bool)
	Err() error
}

// MarketSampler defines the market-scraper contract required by
// QuoteService.
type MarketSampler interface {
	Sample(ctx context.Context, q scrape.Query) SampleStream
}

// MarketSummary describes the sampled population backing a quote.
type MarketSummary struct {
	// Median is the price fed into the pricing formulas, in pesos.
	Median int64 `json:"median"`
	// Min and Max bound the sampled asking prices.
	Min int64 `json:"min"`
	Max int64 `json:"max"`
	// Samples is how many listings were used.
	Samples int `json:"samples"`
	// Source names the sampled site, empty for estimated quotes.
	Source string `json:"source,omitempty"`
	// Estimated is true when no listings matched and the depreciation
	// curve supplied the price.
	Estimated bool `json:"estimated"`
}

// QuoteService prices vehicles from live market samples.
type QuoteService struct {
	// Market samples comparable asking prices.
	Market MarketSampler
	// Engine applies the offer and liquidation formulas.
	Engine *pricing.Engine
	// MaxSamples caps how far the stream is drained per quote.
	MaxSamples int
}

// NewQuoteService constructs a QuoteService.
func NewQuoteService(m MarketSampler, e *pricing.Engine, maxSamples int) *QuoteService {
	if maxSamples < 1 {
		maxSamples = 10
	}
	return &QuoteService{Market: m, Engine: e, MaxSamples: maxSamples}
}

// QuoteFor prices a resolved vehicle. See QuoteQuery for the mechanics.
func (s *QuoteService) QuoteFor(ctx context.Context, v *domain.Vehicle) (*domain.PriceQuote, *MarketSummary, error) {
	return s.QuoteQuery(ctx, scrape.Query{Make: v.Make, Model: v.Model, Year: v.Year})
}

// QuoteQuery prices an ad-hoc vehicle description. It returns the quote plus
// a summary of the market data behind it. Sampling failures propagate with
// their scrape taxonomy intact so callers can map quota and driver errors
// precisely.
func (s *QuoteService) QuoteQuery(ctx context.Context, q scrape.Query) (*domain.PriceQuote, *MarketSummary, error) {
	tr := otel.Tracer("services/QuoteService")
	ctx, span := tr.Start(ctx, "QuoteQuery",
		trace.WithAttributes(
			attribute.String("vehicle.make", q.Make),
			attribute.String("vehicle.model", q.Model),
			attribute.Int("vehicle.year", q.Year),
		),
	)
	defer span.End()

	stream := s.Market.Sample(ctx, q)

	var (
		prices []int64
		source string
	)
	for len(prices) < s.MaxSamples {
		sample, ok := stream.Next()
		if !ok {
			break
		}
		prices = append(prices, sample.Price)
		source = sample.Source
	}
	if err := stream.Err(); err != nil {
		return nil, nil, err
	}
	span.SetAttributes(attribute.Int("market.samples", len(prices)))

	summary := &MarketSummary{Samples: len(prices), Source: source}
	var market *decimal.Decimal
	if len(prices) > 0 {
		med := pricing.Median(prices)
		summary.Median = med.Round(0).IntPart()
		summary.Min = prices[0]
		summary.Max = prices[len(prices)-1]
		for _, p := range prices {
			if p < summary.Min {
				summary.Min = p
			}
			if p > summary.Max {
				summary.Max = p
			}
		}
		market = &med
	}

	quote, err := s.Engine.Quote(&domain.Vehicle{Make: q.Make, Model: q.Model, Year: q.Year}, market)
	if err != nil {
		return nil, nil, err
	}
	if quote.Estimated {
		summary.Estimated = true
		summary.Median = quote.MarketPrice
		summary.Source = ""
	}
	return &quote, summary, nil
}
