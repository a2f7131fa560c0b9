package domain

import "strings"

type VariationAttribute string

const (
	AttributeColor  VariationAttribute = "color"
	AttributeFlavor VariationAttribute = "flavor"
	AttributeSize   VariationAttribute = "size"
	AttributeStyle  VariationAttribute = "style"
	AttributeNone   VariationAttribute = "none"
)

// VariationMember is one record of a group together with the option value
// that distinguishes it from its siblings.
type VariationMember struct {
	Record      ProductRecord `json:"record"`
	OptionValue string        `json:"optionValue"`
}

// VariationGroup clusters records that share a base name, manufacturer and
// type and differ in a single attribute. Members keep source order.
type VariationGroup struct {
	BaseName         string             `json:"baseName"`
	ManufacturerCode string             `json:"manufacturerCode,omitempty"`
	TypeCode         string             `json:"typeCode,omitempty"`
	Attribute        VariationAttribute `json:"variationAttribute"`
	Members          []VariationMember  `json:"members"`
}

// Key is the stable identity of the group across runs.
func (g VariationGroup) Key() string {
	return GroupKey(g.BaseName, g.ManufacturerCode, g.TypeCode)
}

// Records returns the member records in source order.
func (g VariationGroup) Records() []ProductRecord {
	out := make([]ProductRecord, 0, len(g.Members))
	for _, m := range g.Members {
		out = append(out, m.Record)
	}
	return out
}

// GroupKey builds the composite grouping key, case and whitespace insensitive.
func GroupKey(baseName, manufacturerCode, typeCode string) string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return norm(baseName) + "|" + norm(manufacturerCode) + "|" + norm(typeCode)
}

// VariationConflict reports a group rejected because two members resolved to
// the same option value, or a member resolved to none at all.
type VariationConflict struct {
	Group  VariationGroup `json:"group"`
	Value  string         `json:"value"`
	Reason string         `json:"reason"`
}

// Partition is the result of variation detection. Groups and Simple together
// contain every input record exactly once; members of conflicting groups are
// in Simple.
type Partition struct {
	Groups    []VariationGroup    `json:"groups"`
	Simple    []ProductRecord     `json:"simple"`
	Conflicts []VariationConflict `json:"conflicts,omitempty"`
}
