package category

import (
	"strings"
	"unicode"

	"wholesale-catalog/internal/domain"
)

// Weights are the vote weights of the similarity resolver. MinTotal is the
// smallest summed weight a code needs to be kept; MaxCodes caps the result.
type Weights struct {
	Name     int `mapstructure:"name"`
	SKU      int `mapstructure:"sku"`
	Price    int `mapstructure:"price"`
	MinTotal int `mapstructure:"min_total"`
	MaxCodes int `mapstructure:"max_codes"`
}

func DefaultWeights() Weights {
	return Weights{Name: 3, SKU: 2, Price: 1, MinTotal: 2, MaxCodes: 3}
}

// DefaultStopWords are excluded from name matching in addition to words of
// two characters or fewer.
var DefaultStopWords = []string{
	"the", "and", "for", "with", "without", "from", "new", "pack", "set", "kit", "pcs", "piece", "pieces",
	"small", "medium", "large", "mini", "extra", "size", "one",
	"black", "white", "red", "blue", "green", "pink", "purple", "clear", "gold", "silver",
	"light", "dark", "hot",
	"inch", "inches", "ml", "oz", "lbs", "mm", "cm",
}

type entry struct {
	manufacturer string
	codes        []string
}

// Index is the per-run lookup of categorized records by name word, SKU
// prefix and rounded wholesale price. It is read-only once built.
type Index struct {
	entries []entry
	byWord  map[string][]int
	bySKU   map[string][]int
	byPrice map[int64][]int
	stop    map[string]struct{}
}

// NewIndex indexes every record that has at least one code known to mapping.
func NewIndex(records []domain.ProductRecord, mapping domain.CategoryMapping, stopWords []string) *Index {
	idx := &Index{
		byWord:  make(map[string][]int),
		bySKU:   make(map[string][]int),
		byPrice: make(map[int64][]int),
		stop:    make(map[string]struct{}, len(stopWords)),
	}
	for _, w := range stopWords {
		idx.stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	for _, r := range records {
		codes := mappedCodes(r.CategoryCodes, mapping)
		if len(codes) == 0 {
			continue
		}
		n := len(idx.entries)
		idx.entries = append(idx.entries, entry{manufacturer: normCode(r.ManufacturerCode), codes: codes})
		for _, w := range idx.words(r.Name) {
			idx.byWord[w] = append(idx.byWord[w], n)
		}
		for _, p := range skuPrefixes(r.SKU) {
			idx.bySKU[p] = append(idx.bySKU[p], n)
		}
		idx.byPrice[roundedPrice(r)] = append(idx.byPrice[roundedPrice(r)], n)
	}
	return idx
}

// Len is the number of indexed records.
func (idx *Index) Len() int { return len(idx.entries) }

// Vote returns codes whose summed weight reaches w.MinTotal, heaviest first
// and at most w.MaxCodes of them.
func (idx *Index) Vote(target domain.ProductRecord, w Weights) []string {
	totals := make(map[string]int)
	add := func(n, weight int) {
		for _, c := range idx.entries[n].codes {
			totals[c] += weight
		}
	}

	mfr := normCode(target.ManufacturerCode)
	if mfr != "" {
		voted := make(map[int]bool)
		for _, word := range idx.words(target.Name) {
			for _, n := range idx.byWord[word] {
				if voted[n] || idx.entries[n].manufacturer != mfr {
					continue
				}
				voted[n] = true
				add(n, w.Name)
			}
		}
		for _, n := range idx.byPrice[roundedPrice(target)] {
			if idx.entries[n].manufacturer == mfr {
				add(n, w.Price)
			}
		}
	}
	for _, p := range skuPrefixes(target.SKU) {
		for _, n := range idx.bySKU[p] {
			add(n, w.SKU)
		}
	}
	return rank(totals, w)
}

func rank(totals map[string]int, w Weights) []string {
	codes := make([]string, 0, len(totals))
	for c, t := range totals {
		if t >= w.MinTotal {
			codes = append(codes, c)
		}
	}
	sortCodes(codes, totals)
	if w.MaxCodes > 0 && len(codes) > w.MaxCodes {
		codes = codes[:w.MaxCodes]
	}
	return codes
}

// words returns the distinct significant words of name in order of appearance.
func (idx *Index) words(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) <= 2 || seen[f] {
			continue
		}
		if _, stop := idx.stop[f]; stop {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// skuPrefixes returns the distinct 4- and 6-character prefixes and the leading
// letter run of the SKU reduced to upper-case letters and digits.
func skuPrefixes(sku string) []string {
	var b strings.Builder
	for _, r := range strings.ToUpper(sku) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	norm := b.String()
	var out []string
	push := func(p string) {
		if p == "" {
			return
		}
		for _, q := range out {
			if q == p {
				return
			}
		}
		out = append(out, p)
	}
	if len(norm) >= 4 {
		push(norm[:4])
	}
	if len(norm) >= 6 {
		push(norm[:6])
	}
	alpha := strings.IndexFunc(norm, func(r rune) bool { return r < 'A' || r > 'Z' })
	if alpha < 0 {
		alpha = len(norm)
	}
	// a one-letter run matches far too broadly
	if alpha >= 2 {
		push("alpha:" + norm[:alpha])
	}
	return out
}

func roundedPrice(r domain.ProductRecord) int64 {
	return r.WholesalePrice.Round(0).IntPart()
}

func mappedCodes(codes []string, mapping domain.CategoryMapping) []string {
	var out []string
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] || !mapping.Has(c) {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func normCode(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
