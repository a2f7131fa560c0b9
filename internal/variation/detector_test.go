package variation

import (
	"testing"

	"wholesale-catalog/internal/domain"
)

func newDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector(DefaultVocabulary(), nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	return d
}

func rec(barcode, name, mfr string) domain.ProductRecord {
	return domain.ProductRecord{SKU: "SKU-" + barcode, Barcode: barcode, Name: name, ManufacturerCode: mfr, TypeCode: "T1"}
}

func TestBaseName(t *testing.T) {
	d := newDetector(t)
	cases := map[string]string{
		"Foo Bar Red":                 "Foo Bar",
		"Vibe Hot Pink":               "Vibe",
		"Magic Lotion 8oz":            "Magic Lotion",
		"Magic Lotion 3.4 fl oz":      "Magic Lotion",
		"Massage Oil 4 oz Strawberry": "Massage Oil",
		"Thing (Pack of 3)":           "Thing",
		"Thing Blue (Retail) [New]":   "Thing",
		"Red":                         "Red",
		"  Spaced   Name  ":           "Spaced Name",
		"3 in 1 Massager Red":         "3 in 1 Massager",
		"Plug 4 in Black":             "Plug",
	}
	for in, want := range cases {
		if got := d.BaseName(in); got != want {
			t.Fatalf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBaseNameIdempotent(t *testing.T) {
	d := newDetector(t)
	names := []string{
		"Foo Bar Red", "Lube Cherry Lemonade 8 oz", "Blue", "Kit (Black) Large",
		"Glow In The Dark Ring", "Body Wash - Vanilla", "X 10 mm", "(Promo)", "2 in 1 Wash 8 oz",
	}
	for _, n := range names {
		once := d.BaseName(n)
		if once == "" {
			t.Fatalf("BaseName(%q) is empty", n)
		}
		if twice := d.BaseName(once); twice != once {
			t.Fatalf("BaseName not idempotent for %q: %q then %q", n, once, twice)
		}
	}
}

func TestDetect_ColorGroup(t *testing.T) {
	d := newDetector(t)
	p := d.Detect([]domain.ProductRecord{
		rec("1", "Foo Bar Red", "M1"),
		rec("2", "Foo Bar Blue", "M1"),
	})
	if len(p.Groups) != 1 || len(p.Simple) != 0 {
		t.Fatalf("expected one group and no simple products, got %+v", p)
	}
	g := p.Groups[0]
	if g.BaseName != "Foo Bar" || g.Attribute != domain.AttributeColor {
		t.Fatalf("unexpected group %q attribute %q", g.BaseName, g.Attribute)
	}
	if g.Members[0].OptionValue != "Red" || g.Members[1].OptionValue != "Blue" {
		t.Fatalf("unexpected options %q, %q", g.Members[0].OptionValue, g.Members[1].OptionValue)
	}
}

func TestDetect_ColorFieldWins(t *testing.T) {
	d := newDetector(t)
	a := rec("1", "Widget Alpha", "M1")
	a.Attributes.Color = "jet black"
	b := rec("2", "Widget Alpha", "M1")
	b.Attributes.Color = "snow white"
	p := d.Detect([]domain.ProductRecord{a, b})
	if len(p.Groups) != 1 || p.Groups[0].Attribute != domain.AttributeColor {
		t.Fatalf("expected a color group, got %+v", p)
	}
	if got := p.Groups[0].Members[1].OptionValue; got != "Snow White" {
		t.Fatalf("option = %q", got)
	}
}

func TestDetect_FlavorAndSize(t *testing.T) {
	d := newDetector(t)
	p := d.Detect([]domain.ProductRecord{
		rec("1", "Slick Lube Cherry", "M1"),
		rec("2", "Slick Lube Strawberry", "M1"),
		rec("3", "Magic Lotion 4 oz", "M2"),
		rec("4", "Magic Lotion 8oz", "M2"),
	})
	if len(p.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d (%+v)", len(p.Groups), p)
	}
	flavor, size := p.Groups[0], p.Groups[1]
	if flavor.Attribute != domain.AttributeFlavor || flavor.Members[0].OptionValue != "Cherry" {
		t.Fatalf("flavor group = %+v", flavor)
	}
	if size.Attribute != domain.AttributeSize || size.Members[0].OptionValue != "4 OZ" || size.Members[1].OptionValue != "8 OZ" {
		t.Fatalf("size group = %+v", size)
	}
}

func TestDetect_DuplicateOptionIsConflict(t *testing.T) {
	d := newDetector(t)
	p := d.Detect([]domain.ProductRecord{
		rec("1", "Widget Red", "M1"),
		rec("2", "Widget Red", "M1"),
		rec("3", "Solo Item", "M1"),
	})
	if len(p.Groups) != 0 || len(p.Conflicts) != 1 {
		t.Fatalf("expected one conflict and no groups, got %+v", p)
	}
	if len(p.Simple) != 3 {
		t.Fatalf("conflicting members must fall back to simple, got %d", len(p.Simple))
	}
	if p.Simple[0].Barcode != "1" || p.Simple[2].Barcode != "3" {
		t.Fatalf("simple products must keep source order")
	}
}

func TestDetect_ManufacturerSplitsGroups(t *testing.T) {
	d := newDetector(t)
	p := d.Detect([]domain.ProductRecord{
		rec("1", "Foo Bar Red", "M1"),
		rec("2", "Foo Bar Blue", "M2"),
	})
	if len(p.Groups) != 0 || len(p.Simple) != 2 {
		t.Fatalf("different manufacturers must not group: %+v", p)
	}
}

func TestDetect_PartitionCoversInput(t *testing.T) {
	d := newDetector(t)
	in := []domain.ProductRecord{
		rec("1", "Foo Bar Red", "M1"),
		rec("2", "Foo Bar Blue", "M1"),
		rec("3", "Foo Bar Green", "M1"),
		rec("4", "Other", "M1"),
		rec("5", "Widget Red", "M3"),
		rec("6", "Widget Red", "M3"),
		rec("7", "Magic Lotion 4 oz", "M2"),
		rec("8", "Magic Lotion 8 oz", "M2"),
	}
	p := d.Detect(in)
	seen := make(map[string]int)
	for _, g := range p.Groups {
		for _, r := range g.Records() {
			seen[r.Barcode]++
		}
	}
	for _, r := range p.Simple {
		seen[r.Barcode]++
	}
	if len(seen) != len(in) {
		t.Fatalf("partition covers %d of %d records", len(seen), len(in))
	}
	for bc, n := range seen {
		if n != 1 {
			t.Fatalf("record %s appears %d times", bc, n)
		}
	}
}

func TestBuildStrategies_Unknown(t *testing.T) {
	if _, err := NewDetector(DefaultVocabulary(), []domain.VariationAttribute{"texture"}); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestDetect_StyleStrategy(t *testing.T) {
	v := DefaultVocabulary()
	v.Styles = []string{"ribbed", "smooth"}
	d, err := NewDetector(v, []domain.VariationAttribute{domain.AttributeStyle})
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	p := d.Detect([]domain.ProductRecord{
		rec("1", "Sleeve Ribbed", "M1"),
		rec("2", "Sleeve Smooth", "M1"),
	})
	if len(p.Groups) != 1 || p.Groups[0].Attribute != domain.AttributeStyle {
		t.Fatalf("expected style group, got %+v", p)
	}
}
