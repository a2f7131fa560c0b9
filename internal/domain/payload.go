package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductPayload is everything the catalog sink needs for a simple product.
type ProductPayload struct {
	Record     ProductRecord
	Categories CategoryAssignment
	Price      PriceQuote
	Images     []ImageArtifact
}

// MemberPayload is one variation inside a GroupPayload.
type MemberPayload struct {
	Record      ProductRecord
	OptionValue string
	Categories  CategoryAssignment
	Price       PriceQuote
	Images      []ImageArtifact
}

// GroupPayload is a variable product with its variations.
type GroupPayload struct {
	Group   VariationGroup
	Members []MemberPayload
}

// SinkResult identifies what the sink wrote.
type SinkResult struct {
	ID      string
	Created bool
}

// CatalogProduct is the sink's stored view of a product.
type CatalogProduct struct {
	ID             string          `json:"id"`
	Barcode        string          `json:"barcode"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	GroupKey       string          `json:"groupKey,omitempty"`
	OptionValue    string          `json:"optionValue,omitempty"`
	RegularPrice   decimal.Decimal `json:"regularPrice"`
	SalePrice      decimal.Decimal `json:"salePrice"`
	StockQuantity  int             `json:"stockQuantity"`
	Active         bool            `json:"active"`
	CategoryMethod CategoryMethod  `json:"categoryMethod"`
	CategoryCodes  []string        `json:"categoryCodes"`
	ImageHashes    []string        `json:"imageHashes"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
