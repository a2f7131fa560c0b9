package domain

import "github.com/shopspring/decimal"

// PriceQuote is derived from a wholesale price only. SalePrice is always
// strictly below RegularPrice.
type PriceQuote struct {
	RegularPrice decimal.Decimal `json:"regularPrice"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	Multiplier   decimal.Decimal `json:"multiplier"`
}
