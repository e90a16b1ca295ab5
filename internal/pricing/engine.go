// Package pricing turns a market price into a resale quote.
//
// All money math runs on decimals; conversion back to peso integers happens
// only at the quote boundary. An Engine is immutable after construction and
// safe for concurrent use.
package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dryanez/MrcarCotizacion/internal/config"
	"github.com/dryanez/MrcarCotizacion/internal/domain"
)

var (
	// ErrConfiguration marks pricing parameters that cannot produce valid
	// quotes. Wrapped errors carry the offending parameter.
	ErrConfiguration = errors.New("invalid pricing configuration")

	// ErrNoCurve is returned when no market price is available and the
	// engine was built without a depreciation curve.
	ErrNoCurve = errors.New("no market price and no depreciation curve")

	// ErrInvalidPrice is returned for non-positive market prices.
	ErrInvalidPrice = errors.New("market price must be positive")
)

// Engine computes immediate offers and consignment liquidations from a
// market price.
type Engine struct {
	offerMultiplier decimal.Decimal
	offerRoundTo    decimal.Decimal
	tierThreshold   decimal.Decimal
	liquidationRate decimal.Decimal
	flatFee         decimal.Decimal
	curve           Curve
	now             func() time.Time
}

// NewEngine validates the pricing parameters and builds an engine. curve may
// be nil, in which case quotes require a live market price.
func NewEngine(cfg config.PricingConfig, curve Curve) (*Engine, error) {
	mult, err := decimal.NewFromString(cfg.OfferMultiplier)
	if err != nil {
		return nil, fmt.Errorf("%w: offer multiplier %q: %v", ErrConfiguration, cfg.OfferMultiplier, err)
	}
	if mult.IsNegative() || mult.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: offer multiplier %s outside [0, 1]", ErrConfiguration, mult)
	}
	rate, err := decimal.NewFromString(cfg.LiquidationRate)
	if err != nil {
		return nil, fmt.Errorf("%w: liquidation rate %q: %v", ErrConfiguration, cfg.LiquidationRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: liquidation rate %s outside [0, 1]", ErrConfiguration, rate)
	}
	if cfg.OfferRoundTo <= 0 {
		return nil, fmt.Errorf("%w: offer rounding step %d must be positive", ErrConfiguration, cfg.OfferRoundTo)
	}
	if cfg.TierThreshold < 0 {
		return nil, fmt.Errorf("%w: consignment threshold %d must not be negative", ErrConfiguration, cfg.TierThreshold)
	}
	if cfg.FlatFee < 0 {
		return nil, fmt.Errorf("%w: consignment flat fee %d must not be negative", ErrConfiguration, cfg.FlatFee)
	}
	return &Engine{
		offerMultiplier: mult,
		offerRoundTo:    decimal.NewFromInt(cfg.OfferRoundTo),
		tierThreshold:   decimal.NewFromInt(cfg.TierThreshold),
		liquidationRate: rate,
		flatFee:         decimal.NewFromInt(cfg.FlatFee),
		curve:           curve,
		now:             time.Now,
	}, nil
}

// NewCurve builds the default depreciation curve from configuration.
func NewCurve(cfg config.PricingConfig) (Curve, error) {
	decay, err := decimal.NewFromString(cfg.AnnualDecay)
	if err != nil {
		return nil, fmt.Errorf("%w: annual decay %q: %v", ErrConfiguration, cfg.AnnualDecay, err)
	}
	one := decimal.NewFromInt(1)
	if !decay.IsPositive() || decay.GreaterThanOrEqual(one) {
		return nil, fmt.Errorf("%w: annual decay %s outside (0, 1)", ErrConfiguration, decay)
	}
	if cfg.BaseNewPrice <= 0 {
		return nil, fmt.Errorf("%w: base new price %d must be positive", ErrConfiguration, cfg.BaseNewPrice)
	}
	return ExponentialCurve{
		BaseNewPrice: decimal.NewFromInt(cfg.BaseNewPrice),
		AnnualDecay:  decay,
		FloorPrice:   decimal.NewFromInt(cfg.FloorPrice),
	}, nil
}

// Quote produces the full resale quote for a vehicle. market is the sampled
// market price, or nil when no live samples were found; in the nil case the
// depreciation curve supplies an estimate and the quote is flagged as such.
func (e *Engine) Quote(v *domain.Vehicle, market *decimal.Decimal) (domain.PriceQuote, error) {
	var (
		price     decimal.Decimal
		estimated bool
	)
	switch {
	case market != nil:
		if !market.IsPositive() {
			return domain.PriceQuote{}, ErrInvalidPrice
		}
		price = *market
	case e.curve != nil:
		price = e.curve.Estimate(v.Year, e.now())
		estimated = true
	default:
		return domain.PriceQuote{}, ErrNoCurve
	}

	liquidation, kind := e.Liquidation(price)
	return domain.PriceQuote{
		MarketPrice:            price.Round(0).IntPart(),
		ImmediateOffer:         e.ImmediateOffer(price).IntPart(),
		ConsignmentLiquidation: liquidation.IntPart(),
		ConsignmentType:        kind,
		Estimated:              estimated,
	}, nil
}

// ImmediateOffer is the cash purchase price: a fixed share of the market
// price, rounded half-up to the nearest configured step.
func (e *Engine) ImmediateOffer(market decimal.Decimal) decimal.Decimal {
	return roundToNearest(market.Mul(e.offerMultiplier), e.offerRoundTo)
}

// Liquidation is the amount paid out after a consignment sale. Prices
// strictly above the tier threshold retain a percentage; at or below it a
// flat fee is subtracted, clamped at zero.
func (e *Engine) Liquidation(market decimal.Decimal) (decimal.Decimal, string) {
	if market.GreaterThan(e.tierThreshold) {
		return market.Mul(e.liquidationRate).Floor(), domain.ConsignmentPercentage
	}
	out := market.Sub(e.flatFee)
	if out.IsNegative() {
		out = decimal.Zero
	}
	return out.Floor(), domain.ConsignmentFixedFee
}

// Median returns the median of the sampled prices, averaging the two middle
// values for even sample counts. It panics on an empty slice; callers guard.
func Median(prices []int64) decimal.Decimal {
	sorted := make([]int64, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	mid := n / 2
	if n%2 == 1 {
		return decimal.NewFromInt(sorted[mid])
	}
	two := decimal.NewFromInt(2)
	return decimal.NewFromInt(sorted[mid-1]).Add(decimal.NewFromInt(sorted[mid])).Div(two)
}

// roundToNearest rounds v half-up to the nearest multiple of step.
func roundToNearest(v, step decimal.Decimal) decimal.Decimal {
	return v.Div(step).Round(0).Mul(step)
}

// FormatCLP renders a peso amount with dot thousand separators, e.g.
// "$7.650.000".
func FormatCLP(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte('.')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte('.')
		}
	}
	return b.String()
}
