package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	ErrInvalidRecord     = errors.New("record is missing sku or barcode")
	ErrDuplicateBarcode  = errors.New("duplicate barcode in feed")
	ErrNotSellable       = errors.New("wholesale price must be positive")
	ErrVariationConflict = errors.New("variation option conflict")
	ErrAlreadyWritten    = errors.New("barcode already written in this run")
	ErrNoImages          = errors.New("none of the product images could be normalized")
	ErrUnreadableFeed    = errors.New("feed is unreadable")
	ErrUnsupportedFeed   = errors.New("unsupported feed format")
)
