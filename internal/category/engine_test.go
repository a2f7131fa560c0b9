package category

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"wholesale-catalog/internal/domain"
)

var mapping = domain.CategoryMapping{"C10": "id-10", "C20": "id-20", "C1": "id-1", "C2": "id-2", "C3": "id-3", "C4": "id-4"}

func product(sku, name, mfr, price string, codes ...string) domain.ProductRecord {
	return domain.ProductRecord{
		SKU:              sku,
		Barcode:          "bc-" + sku,
		Name:             name,
		ManufacturerCode: mfr,
		WholesalePrice:   decimal.RequireFromString(price),
		CategoryCodes:    codes,
	}
}

func TestResolve_Explicit(t *testing.T) {
	rec := product("AA-1", "Anything", "M1", "5", "UNKNOWN", "C20", "C20")
	e := NewEngine([]domain.ProductRecord{rec}, mapping, DefaultOptions(), nil)
	got := e.Resolve(rec)
	if got.Method != domain.CategoryExplicit || !reflect.DeepEqual(got.Codes, []string{"C20"}) {
		t.Fatalf("unexpected assignment %+v", got)
	}
}

func TestResolve_ExplicitCappedAtThree(t *testing.T) {
	rec := product("AA-1", "Anything", "M1", "5", "C1", "C2", "C3", "C4", "C10")
	e := NewEngine([]domain.ProductRecord{rec}, mapping, DefaultOptions(), nil)
	got := e.Resolve(rec)
	if got.Method != domain.CategoryExplicit || !reflect.DeepEqual(got.Codes, []string{"C1", "C2", "C3"}) {
		t.Fatalf("unexpected assignment %+v", got)
	}

	opts := DefaultOptions()
	opts.Weights.MaxCodes = 2
	got = NewEngine([]domain.ProductRecord{rec}, mapping, opts, nil).Resolve(rec)
	if !reflect.DeepEqual(got.Codes, []string{"C1", "C2"}) {
		t.Fatalf("codes = %v, want first two", got.Codes)
	}
}

func TestResolve_SimilarityScenario(t *testing.T) {
	all := []domain.ProductRecord{
		product("AA-1001", "Deluxe Massage Candle Kit", "M1", "10", "C10"),
		product("BB-2002", "Deluxe Massage Candle Vanilla", "M1", "20", "C10"),
		product("ZZ-9009", "Deluxe Massage Candle Amber", "M1", "33"),
	}
	e := NewEngine(all, mapping, DefaultOptions(), nil)
	got := e.Resolve(all[2])
	if got.Method != domain.CategorySimilarity {
		t.Fatalf("method = %s, want %s", got.Method, domain.CategorySimilarity)
	}
	if !reflect.DeepEqual(got.Codes, []string{"C10"}) {
		t.Fatalf("codes = %v", got.Codes)
	}
}

func TestVote_NameMatchRequiresManufacturer(t *testing.T) {
	all := []domain.ProductRecord{
		product("AA-1001", "Deluxe Massage Candle", "M2", "10", "C10"),
	}
	idx := NewIndex(all, mapping, DefaultStopWords)
	if got := idx.Vote(product("ZZ-9", "Deluxe Massage Candle", "M1", "50"), DefaultWeights()); len(got) != 0 {
		t.Fatalf("expected no codes across manufacturers, got %v", got)
	}
}

func TestVote_NameVoteOncePerRecord(t *testing.T) {
	all := []domain.ProductRecord{
		product("AA-1001", "Deluxe Massage Candle", "M1", "10", "C10"),
	}
	idx := NewIndex(all, mapping, DefaultStopWords)
	w := Weights{Name: 1, SKU: 2, Price: 1, MinTotal: 2, MaxCodes: 3}
	// three shared words still count as a single vote of weight 1
	if got := idx.Vote(product("ZZ-9", "Deluxe Massage Candle", "M1", "50"), w); len(got) != 0 {
		t.Fatalf("expected name votes to be deduplicated, got %v", got)
	}
}

func TestVote_CapAndOrder(t *testing.T) {
	all := []domain.ProductRecord{
		product("AA-1", "Velvet Rope Restraint", "M1", "11", "C4"),
		product("BB-1", "Velvet Rope Restraint", "M1", "12", "C3"),
		product("CC-1", "Velvet Rope Restraint", "M1", "13", "C2"),
		product("DD-1", "Velvet Rope Restraint", "M1", "14", "C1", "C2"),
	}
	idx := NewIndex(all, mapping, DefaultStopWords)
	got := idx.Vote(product("ZZ-1", "Velvet Rope Deluxe", "M1", "90"), DefaultWeights())
	want := []string{"C2", "C1", "C3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
}

func TestVote_Threshold(t *testing.T) {
	all := []domain.ProductRecord{
		product("AA-1", "Something Else", "M1", "10", "C10"),
	}
	idx := NewIndex(all, mapping, DefaultStopWords)
	// only the rounded price matches: weight 1 is below the threshold
	if got := idx.Vote(product("ZZ-1", "Unrelated Thing", "M1", "9.60"), DefaultWeights()); len(got) != 0 {
		t.Fatalf("expected nothing below threshold, got %v", got)
	}
	// a SKU prefix match alone carries weight 2 and qualifies
	if got := idx.Vote(product("AA-7", "Unrelated Thing", "M9", "70"), DefaultWeights()); !reflect.DeepEqual(got, []string{"C10"}) {
		t.Fatalf("expected SKU prefix vote, got %v", got)
	}
}

func TestResolve_TypeTableThenNone(t *testing.T) {
	opts := DefaultOptions()
	opts.TypeTable = map[string]string{"lube": "C20", "toys": "MISSING"}
	rec := product("QQ-1", "Lonely Item", "M1", "10")
	rec.TypeCode = "LUBE"
	e := NewEngine([]domain.ProductRecord{rec}, mapping, opts, nil)
	got := e.Resolve(rec)
	if got.Method != domain.CategoryByType || !reflect.DeepEqual(got.Codes, []string{"C20"}) {
		t.Fatalf("unexpected assignment %+v", got)
	}

	rec.TypeCode = "TOYS"
	got = e.Resolve(rec)
	if got.Method != domain.CategoryNone || len(got.Codes) != 0 {
		t.Fatalf("expected none, got %+v", got)
	}
}

func TestSKUPrefixes(t *testing.T) {
	got := skuPrefixes("ab-12 34x")
	want := []string{"AB12", "AB1234", "alpha:AB"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("skuPrefixes = %v, want %v", got, want)
	}
}
