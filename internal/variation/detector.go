package variation

import (
	"strings"

	"wholesale-catalog/internal/domain"
)

// Detector partitions a feed into variation groups and simple products.
type Detector struct {
	ex         *Extractor
	strategies []Strategy
}

func NewDetector(v Vocabulary, order []domain.VariationAttribute) (*Detector, error) {
	if len(order) == 0 {
		order = DefaultStrategies
	}
	ex := NewExtractor(v)
	strategies, err := BuildStrategies(ex, v, order)
	if err != nil {
		return nil, err
	}
	return &Detector{ex: ex, strategies: strategies}, nil
}

func (d *Detector) BaseName(name string) string { return d.ex.BaseName(name) }

// Detect groups records sharing (base name, manufacturer, type). Every input
// record ends up in exactly one group or in Simple. Groups whose option values
// are empty or collide are reported as conflicts and their members fall back to
// simple products.
func (d *Detector) Detect(records []domain.ProductRecord) domain.Partition {
	type candidate struct {
		base    string
		indexes []int
	}
	var order []string
	buckets := make(map[string]*candidate)
	for i, rec := range records {
		base := d.ex.BaseName(rec.Name)
		key := domain.GroupKey(base, rec.ManufacturerCode, rec.TypeCode)
		c, ok := buckets[key]
		if !ok {
			c = &candidate{base: base}
			buckets[key] = c
			order = append(order, key)
		}
		c.indexes = append(c.indexes, i)
	}

	var out domain.Partition
	grouped := make(map[int]bool)
	for _, key := range order {
		c := buckets[key]
		if len(c.indexes) < 2 {
			continue
		}
		members := make([]domain.ProductRecord, len(c.indexes))
		for j, idx := range c.indexes {
			members[j] = records[idx]
		}
		group := d.build(c.base, members)
		if conflict, ok := checkOptions(group); !ok {
			out.Conflicts = append(out.Conflicts, conflict)
			continue
		}
		out.Groups = append(out.Groups, group)
		for _, idx := range c.indexes {
			grouped[idx] = true
		}
	}
	for i, rec := range records {
		if !grouped[i] {
			out.Simple = append(out.Simple, rec)
		}
	}
	return out
}

func (d *Detector) build(base string, members []domain.ProductRecord) domain.VariationGroup {
	first := members[0]
	g := domain.VariationGroup{
		BaseName:         base,
		ManufacturerCode: first.ManufacturerCode,
		TypeCode:         first.TypeCode,
		Attribute:        domain.AttributeNone,
	}
	option := func(rec domain.ProductRecord) string { return suffixOption(base, rec) }
	for _, s := range d.strategies {
		if s.Applies(base, members) {
			g.Attribute = s.Attribute()
			option = func(rec domain.ProductRecord) string { return s.Option(base, rec) }
			break
		}
	}
	for _, m := range members {
		g.Members = append(g.Members, domain.VariationMember{Record: m, OptionValue: option(m)})
	}
	return g
}

func checkOptions(g domain.VariationGroup) (domain.VariationConflict, bool) {
	seen := make(map[string]bool, len(g.Members))
	for _, m := range g.Members {
		v := strings.ToLower(strings.TrimSpace(m.OptionValue))
		if v == "" {
			return domain.VariationConflict{Group: g, Value: m.OptionValue, Reason: "empty option value"}, false
		}
		if seen[v] {
			return domain.VariationConflict{Group: g, Value: m.OptionValue, Reason: "duplicate option value"}, false
		}
		seen[v] = true
	}
	return domain.VariationConflict{}, true
}
