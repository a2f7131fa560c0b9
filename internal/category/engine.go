package category

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"wholesale-catalog/internal/domain"
)

// Resolver is one step of the category fallback chain. It returns nil when it
// cannot place the record.
type Resolver interface {
	Method() domain.CategoryMethod
	Resolve(rec domain.ProductRecord) []string
}

type Options struct {
	Weights   Weights
	StopWords []string
	// TypeTable maps product type codes to category codes. Keys are compared
	// case-insensitively.
	TypeTable map[string]string
}

func DefaultOptions() Options {
	return Options{Weights: DefaultWeights(), StopWords: DefaultStopWords}
}

// MaxCodes is the most categories one product is ever assigned.
const MaxCodes = 3

// Engine assigns categories by trying explicit codes, then similarity votes,
// then the type table. Whatever resolver wins, at most maxCodes codes are kept.
type Engine struct {
	resolvers []Resolver
	maxCodes  int
	log       *zerolog.Logger
}

// NewEngine builds the per-run index from all records. The returned engine is
// safe for concurrent use.
func NewEngine(all []domain.ProductRecord, mapping domain.CategoryMapping, opts Options, log *zerolog.Logger) *Engine {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	idx := NewIndex(all, mapping, opts.StopWords)
	log.Debug().Int("indexed", idx.Len()).Int("records", len(all)).Msg("category index built")
	e := NewEngineWith(log,
		ExplicitResolver{Mapping: mapping},
		SimilarityResolver{Index: idx, Weights: opts.Weights},
		NewTypeResolver(opts.TypeTable, mapping),
	)
	if n := opts.Weights.MaxCodes; n > 0 && n < MaxCodes {
		e.maxCodes = n
	}
	return e
}

// NewEngineWith builds an engine over a custom resolver chain.
func NewEngineWith(log *zerolog.Logger, resolvers ...Resolver) *Engine {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Engine{resolvers: resolvers, maxCodes: MaxCodes, log: log}
}

func (e *Engine) Resolve(rec domain.ProductRecord) domain.CategoryAssignment {
	for _, r := range e.resolvers {
		if codes := r.Resolve(rec); len(codes) > 0 {
			if len(codes) > e.maxCodes {
				e.log.Debug().Str("sku", rec.SKU).Int("codes", len(codes)).Msg("category codes truncated")
				codes = codes[:e.maxCodes]
			}
			return domain.CategoryAssignment{ProductSKU: rec.SKU, Codes: codes, Method: r.Method()}
		}
	}
	e.log.Debug().Str("sku", rec.SKU).Msg("no category resolved")
	return domain.CategoryAssignment{ProductSKU: rec.SKU, Codes: []string{}, Method: domain.CategoryNone}
}

type ExplicitResolver struct {
	Mapping domain.CategoryMapping
}

func (ExplicitResolver) Method() domain.CategoryMethod { return domain.CategoryExplicit }

func (r ExplicitResolver) Resolve(rec domain.ProductRecord) []string {
	return mappedCodes(rec.CategoryCodes, r.Mapping)
}

type SimilarityResolver struct {
	Index   *Index
	Weights Weights
}

func (SimilarityResolver) Method() domain.CategoryMethod { return domain.CategorySimilarity }

func (r SimilarityResolver) Resolve(rec domain.ProductRecord) []string {
	return r.Index.Vote(rec, r.Weights)
}

type TypeResolver struct {
	table   map[string]string
	mapping domain.CategoryMapping
}

// NewTypeResolver keeps only table entries whose category is in mapping.
func NewTypeResolver(table map[string]string, mapping domain.CategoryMapping) TypeResolver {
	t := make(map[string]string, len(table))
	for k, v := range table {
		if mapping.Has(v) {
			t[normCode(k)] = v
		}
	}
	return TypeResolver{table: t, mapping: mapping}
}

func (TypeResolver) Method() domain.CategoryMethod { return domain.CategoryByType }

func (r TypeResolver) Resolve(rec domain.ProductRecord) []string {
	if code, ok := r.table[normCode(rec.TypeCode)]; ok && strings.TrimSpace(rec.TypeCode) != "" {
		return []string{code}
	}
	return nil
}

func sortCodes(codes []string, totals map[string]int) {
	sort.Slice(codes, func(i, j int) bool {
		if totals[codes[i]] != totals[codes[j]] {
			return totals[codes[i]] > totals[codes[j]]
		}
		return codes[i] < codes[j]
	})
}
