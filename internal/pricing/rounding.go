package pricing

import "github.com/shopspring/decimal"

var (
	one       = decimal.NewFromInt(1)
	ending97  = decimal.RequireFromString("0.97")
	saleFloor = decimal.RequireFromString("0.67")

	// saleEndings is ordered high to low.
	saleEndings = []decimal.Decimal{
		decimal.RequireFromString("0.97"),
		decimal.RequireFromString("0.87"),
		decimal.RequireFromString("0.77"),
		decimal.RequireFromString("0.67"),
	}
)

// RoundRegular moves a raw price up to the next .97 ending, so 9.01 becomes
// 9.97 and 9.98 becomes 10.97. A whole dollar amount is the one exception and
// goes to the .97 just below it: 9.00 becomes 8.97. The result is never below
// 0.97.
func RoundRegular(raw decimal.Decimal) decimal.Decimal {
	dollar := raw.Floor()
	p := dollar.Add(ending97)
	switch {
	case raw.Equal(dollar):
		p = dollar.Sub(one).Add(ending97)
	case p.LessThan(raw):
		p = p.Add(one)
	}
	if p.LessThan(ending97) {
		return ending97
	}
	return p
}

// RoundSale moves a raw price down to the highest .67/.77/.87/.97 ending of
// its own dollar, or to the previous dollar's .97 when none fits. The result
// is never below 0.67.
func RoundSale(raw decimal.Decimal) decimal.Decimal {
	dollar := raw.Floor()
	for _, end := range saleEndings {
		if p := dollar.Add(end); p.LessThanOrEqual(raw) {
			return maxDecimal(p, saleFloor)
		}
	}
	return maxDecimal(dollar.Sub(one).Add(ending97), saleFloor)
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
