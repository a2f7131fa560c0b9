package domain

import "time"

type Category struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	ParentCode string    `json:"parentCode,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CategoryMethod string

const (
	CategoryExplicit   CategoryMethod = "explicit"
	CategorySimilarity CategoryMethod = "inferred-similarity"
	CategoryByType     CategoryMethod = "inferred-by-type"
	CategoryNone       CategoryMethod = "none"
)

// CategoryAssignment is the resolved taxonomy of one record. Codes is empty
// only when Method is CategoryNone.
type CategoryAssignment struct {
	ProductSKU string         `json:"productSku"`
	Codes      []string       `json:"resolvedCodes"`
	Method     CategoryMethod `json:"method"`
}

// CategoryMapping maps supplier category codes to sink-side identifiers.
type CategoryMapping map[string]string

// Has reports whether code is known to the sink.
func (m CategoryMapping) Has(code string) bool {
	_, ok := m[code]
	return ok
}
