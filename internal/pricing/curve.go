package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"wholesale-catalog/internal/domain"
)

// Curve maps a wholesale price to retail prices. The markup multiplier falls
// logarithmically from MaxMult at MinPrice to MinMult at MaxPrice and is flat
// outside that range.
type Curve struct {
	MinPrice float64 `mapstructure:"min_price"`
	MaxPrice float64 `mapstructure:"max_price"`
	MaxMult  float64 `mapstructure:"max_multiplier"`
	MinMult  float64 `mapstructure:"min_multiplier"`
	Discount float64 `mapstructure:"discount"`
}

func DefaultCurve() Curve {
	return Curve{
		MinPrice: 5,
		MaxPrice: 200,
		MaxMult:  3.0,
		MinMult:  1.6,
		Discount: 0.10,
	}
}

func (c Curve) Validate() error {
	switch {
	case c.MinPrice <= 0:
		return errors.New("pricing: min_price must be positive")
	case c.MaxPrice <= c.MinPrice:
		return fmt.Errorf("pricing: max_price %.2f must exceed min_price %.2f", c.MaxPrice, c.MinPrice)
	case c.MinMult <= 0 || c.MaxMult < c.MinMult:
		return fmt.Errorf("pricing: multipliers must satisfy 0 < min (%.3f) <= max (%.3f)", c.MinMult, c.MaxMult)
	case c.Discount <= 0 || c.Discount >= 1:
		return fmt.Errorf("pricing: discount %.3f must be in (0,1)", c.Discount)
	}
	return nil
}

// Multiplier returns the markup factor for a wholesale price.
func (c Curve) Multiplier(wholesale float64) float64 {
	switch {
	case wholesale <= c.MinPrice:
		return c.MaxMult
	case wholesale >= c.MaxPrice:
		return c.MinMult
	}
	t := math.Log(wholesale/c.MinPrice) / math.Log(c.MaxPrice/c.MinPrice)
	return c.MaxMult - (c.MaxMult-c.MinMult)*t
}

// Quote prices one wholesale amount. Non-positive amounts are not sellable.
func (c Curve) Quote(wholesale decimal.Decimal) (domain.PriceQuote, error) {
	if !wholesale.IsPositive() {
		return domain.PriceQuote{}, domain.ErrNotSellable
	}
	w, _ := wholesale.Float64()
	mult := decimal.NewFromFloat(c.Multiplier(w))

	regular := RoundRegular(wholesale.Mul(mult))
	keep := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(c.Discount))
	sale := RoundSale(regular.Mul(keep))

	return domain.PriceQuote{
		RegularPrice: regular,
		SalePrice:    sale,
		Multiplier:   mult,
	}, nil
}
