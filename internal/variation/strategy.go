package variation

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"wholesale-catalog/internal/domain"
)

// Strategy decides whether a candidate group varies along one attribute and
// extracts each member's option value for it.
type Strategy interface {
	Attribute() domain.VariationAttribute
	Applies(base string, members []domain.ProductRecord) bool
	Option(base string, rec domain.ProductRecord) string
}

// DefaultStrategies is the detection order used when none is configured.
var DefaultStrategies = []domain.VariationAttribute{
	domain.AttributeColor,
	domain.AttributeFlavor,
	domain.AttributeSize,
}

// BuildStrategies maps attribute names to strategies, preserving order.
func BuildStrategies(ex *Extractor, v Vocabulary, names []domain.VariationAttribute) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		switch domain.VariationAttribute(strings.ToLower(string(n))) {
		case domain.AttributeColor:
			out = append(out, colorStrategy{ex: ex})
		case domain.AttributeFlavor:
			out = append(out, flavorStrategy{indicators: lowerAll(v.FlavorIndicators)})
		case domain.AttributeSize:
			out = append(out, sizeStrategy{ex: ex})
		case domain.AttributeStyle:
			out = append(out, styleStrategy{ex: ex})
		default:
			return nil, fmt.Errorf("unknown variation strategy %q", n)
		}
	}
	return out, nil
}

type colorStrategy struct{ ex *Extractor }

func (colorStrategy) Attribute() domain.VariationAttribute { return domain.AttributeColor }

func (s colorStrategy) Applies(base string, members []domain.ProductRecord) bool {
	return distinct(members, func(r domain.ProductRecord) string { return s.value(base, r) }) >= 2
}

func (s colorStrategy) Option(base string, rec domain.ProductRecord) string {
	if v := s.value(base, rec); v != "" {
		return titleCase(v)
	}
	return suffixOption(base, rec)
}

// value prefers the explicit colour field, then a colour phrase in the part of
// the name after the base, then anywhere in the name.
func (s colorStrategy) value(base string, rec domain.ProductRecord) string {
	if c := strings.TrimSpace(rec.Attributes.Color); c != "" {
		return c
	}
	if c := s.ex.Color(Remainder(rec.Name, base)); c != "" {
		return c
	}
	return s.ex.Color(rec.Name)
}

type flavorStrategy struct{ indicators []string }

func (flavorStrategy) Attribute() domain.VariationAttribute { return domain.AttributeFlavor }

func (s flavorStrategy) Applies(_ string, members []domain.ProductRecord) bool {
	for _, m := range members {
		name := strings.ToLower(m.Name)
		for _, kw := range s.indicators {
			if kw != "" && strings.Contains(name, kw) {
				return true
			}
		}
	}
	return false
}

func (flavorStrategy) Option(base string, rec domain.ProductRecord) string {
	return suffixOption(base, rec)
}

type sizeStrategy struct{ ex *Extractor }

func (sizeStrategy) Attribute() domain.VariationAttribute { return domain.AttributeSize }

func (s sizeStrategy) Applies(_ string, members []domain.ProductRecord) bool {
	return distinct(members, s.value) >= 2
}

func (s sizeStrategy) Option(base string, rec domain.ProductRecord) string {
	if v := s.value(rec); v != "" {
		return v
	}
	return suffixOption(base, rec)
}

func (s sizeStrategy) value(rec domain.ProductRecord) string {
	if v := strings.TrimSpace(rec.Attributes.Size); v != "" {
		return strings.ToUpper(v)
	}
	if v := s.ex.SizeToken(rec.Name); v != "" {
		return v
	}
	return strings.ToUpper(s.ex.Size(rec.Name))
}

type styleStrategy struct{ ex *Extractor }

func (styleStrategy) Attribute() domain.VariationAttribute { return domain.AttributeStyle }

func (s styleStrategy) Applies(base string, members []domain.ProductRecord) bool {
	return distinct(members, func(r domain.ProductRecord) string { return s.ex.Style(Remainder(r.Name, base)) }) >= 2
}

func (s styleStrategy) Option(base string, rec domain.ProductRecord) string {
	if v := s.ex.Style(Remainder(rec.Name, base)); v != "" {
		return titleCase(v)
	}
	return suffixOption(base, rec)
}

// suffixOption is the name remainder after the base, title-cased.
func suffixOption(base string, rec domain.ProductRecord) string {
	return titleCase(Remainder(rec.Name, base))
}

func distinct(members []domain.ProductRecord, value func(domain.ProductRecord) string) int {
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if v := strings.ToLower(strings.TrimSpace(value(m))); v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// titleCase builds a caser per call; cases.Caser is not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}
