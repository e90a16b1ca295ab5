package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Curve estimates a market price for a vehicle when no live samples are
// available.
type Curve interface {
	// Estimate returns an estimated market price in pesos for a vehicle of
	// the given model year, evaluated at now.
	Estimate(year int, now time.Time) decimal.Decimal
}

// ExponentialCurve models straight exponential depreciation from a baseline
// new-vehicle price, with a floor for very old vehicles.
type ExponentialCurve struct {
	BaseNewPrice decimal.Decimal // price of the vehicle when new
	AnnualDecay  decimal.Decimal // fraction of value lost per year, in (0, 1)
	FloorPrice   decimal.Decimal // estimate never drops below this
}

// Estimate applies base * (1 - decay)^age, clamped to the floor. Vehicles
// with a model year in the future are treated as new.
func (c ExponentialCurve) Estimate(year int, now time.Time) decimal.Decimal {
	age := now.UTC().Year() - year
	if age < 0 {
		age = 0
	}
	retain := decimal.NewFromInt(1).Sub(c.AnnualDecay)
	v := c.BaseNewPrice.Mul(retain.Pow(decimal.NewFromInt(int64(age))))
	if v.LessThan(c.FloorPrice) {
		return c.FloorPrice
	}
	return v
}
