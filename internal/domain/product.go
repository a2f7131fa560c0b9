package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductRecord is one wholesale catalog entry as read from a supplier feed.
// Records are never mutated after parsing; downstream stages derive new values
// and refer back to the record by SKU or barcode.
type ProductRecord struct {
	SKU              string          `json:"sku"`
	Barcode          string          `json:"barcode"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	WholesalePrice   decimal.Decimal `json:"wholesalePrice"`
	StockQuantity    int             `json:"stockQuantity"`
	Active           bool            `json:"active"`
	OnSale           bool            `json:"onSale"`
	Discountable     bool            `json:"discountable"`
	Dimensions       Dimensions      `json:"dimensions"`
	Attributes       Attributes      `json:"attributes"`
	ManufacturerCode string          `json:"manufacturerCode,omitempty"`
	ManufacturerName string          `json:"manufacturerName,omitempty"`
	TypeCode         string          `json:"typeCode,omitempty"`
	TypeName         string          `json:"typeName,omitempty"`
	CategoryCodes    []string        `json:"categoryCodes,omitempty"`
	Images           []string        `json:"images,omitempty"`
	// Line is the 1-based position of the record in its source feed.
	Line int `json:"line,omitempty"`
}

// Dimensions are optional; feeds that omit a value produce zero.
type Dimensions struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
	Weight decimal.Decimal `json:"weight"`
}

type Attributes struct {
	Color    string `json:"color,omitempty"`
	Material string `json:"material,omitempty"`
	Size     string `json:"size,omitempty"`
}

// Key identifies the record in logs and error lists, preferring the barcode.
func (r ProductRecord) Key() string {
	if r.Barcode != "" {
		return r.Barcode
	}
	return r.SKU
}

// Importable reports whether the record carries both identifiers the sink needs.
func (r ProductRecord) Importable() bool {
	return strings.TrimSpace(r.SKU) != "" && strings.TrimSpace(r.Barcode) != ""
}

// Sellable reports whether the record has a positive wholesale price.
func (r ProductRecord) Sellable() bool {
	return r.WholesalePrice.IsPositive()
}
