package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"wholesale-catalog/internal/category"
	"wholesale-catalog/internal/domain"
	"wholesale-catalog/internal/pricing"
	"wholesale-catalog/internal/variation"
)

// Rules are the heuristic tables the import engines are built from.
type Rules struct {
	Pricing   pricing.Curve   `mapstructure:"pricing"`
	Variation VariationRules  `mapstructure:"variation"`
	Category  CategoryRules   `mapstructure:"category"`
	Taxonomy  []TaxonomyEntry `mapstructure:"taxonomy"`
}

type VariationRules struct {
	Vocabulary variation.Vocabulary        `mapstructure:",squash"`
	Strategies []domain.VariationAttribute `mapstructure:"strategies"`
}

type CategoryRules struct {
	Weights   category.Weights  `mapstructure:"weights"`
	StopWords []string          `mapstructure:"stop_words"`
	TypeTable map[string]string `mapstructure:"type_table"`
}

// TaxonomyEntry is one category the seeder creates in the catalog.
type TaxonomyEntry struct {
	Code   string `mapstructure:"code"`
	Name   string `mapstructure:"name"`
	Parent string `mapstructure:"parent"`
}

func DefaultRules() Rules {
	return Rules{
		Pricing: pricing.DefaultCurve(),
		Variation: VariationRules{
			Vocabulary: variation.DefaultVocabulary(),
			Strategies: variation.DefaultStrategies,
		},
		Category: CategoryRules{
			Weights:   category.DefaultWeights(),
			StopWords: category.DefaultStopWords,
			TypeTable: map[string]string{},
		},
	}
}

// LoadRules reads path (yaml, json or toml, by extension) over the compiled-in
// defaults. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	v := viper.New()
	setRuleDefaults(v, DefaultRules())
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Rules{}, fmt.Errorf("read rules file: %w", err)
		}
	}
	var rules Rules
	if err := v.Unmarshal(&rules); err != nil {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}
	if rules.Category.TypeTable == nil {
		rules.Category.TypeTable = map[string]string{}
	}
	return rules, rules.Validate()
}

func setRuleDefaults(v *viper.Viper, d Rules) {
	v.SetDefault("pricing.min_price", d.Pricing.MinPrice)
	v.SetDefault("pricing.max_price", d.Pricing.MaxPrice)
	v.SetDefault("pricing.max_multiplier", d.Pricing.MaxMult)
	v.SetDefault("pricing.min_multiplier", d.Pricing.MinMult)
	v.SetDefault("pricing.discount", d.Pricing.Discount)

	voc := d.Variation.Vocabulary
	v.SetDefault("variation.colors", voc.Colors)
	v.SetDefault("variation.flavors", voc.Flavors)
	v.SetDefault("variation.sizes", voc.Sizes)
	v.SetDefault("variation.styles", voc.Styles)
	v.SetDefault("variation.flavor_indicators", voc.FlavorIndicators)
	v.SetDefault("variation.units", voc.Units)
	strategies := make([]string, len(d.Variation.Strategies))
	for i, s := range d.Variation.Strategies {
		strategies[i] = string(s)
	}
	v.SetDefault("variation.strategies", strategies)

	v.SetDefault("category.weights.name", d.Category.Weights.Name)
	v.SetDefault("category.weights.sku", d.Category.Weights.SKU)
	v.SetDefault("category.weights.price", d.Category.Weights.Price)
	v.SetDefault("category.weights.min_total", d.Category.Weights.MinTotal)
	v.SetDefault("category.weights.max_codes", d.Category.Weights.MaxCodes)
	v.SetDefault("category.stop_words", d.Category.StopWords)
}

func (r Rules) Validate() error {
	var errs []error
	if err := r.Pricing.Validate(); err != nil {
		errs = append(errs, err)
	}
	w := r.Category.Weights
	if w.MinTotal < 1 || w.MaxCodes < 1 {
		errs = append(errs, errors.New("category weights: min_total and max_codes must be at least 1"))
	}
	if w.MaxCodes > category.MaxCodes {
		errs = append(errs, fmt.Errorf("category weights: max_codes %d exceeds %d", w.MaxCodes, category.MaxCodes))
	}
	if _, err := variation.NewDetector(r.Variation.Vocabulary, r.Variation.Strategies); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]bool, len(r.Taxonomy))
	for _, t := range r.Taxonomy {
		code := strings.TrimSpace(t.Code)
		if code == "" || strings.TrimSpace(t.Name) == "" {
			errs = append(errs, fmt.Errorf("taxonomy entry %q needs code and name", t.Code))
			continue
		}
		if seen[code] {
			errs = append(errs, fmt.Errorf("taxonomy code %q declared twice", code))
		}
		seen[code] = true
	}
	for _, t := range r.Taxonomy {
		if t.Parent != "" && !seen[t.Parent] {
			errs = append(errs, fmt.Errorf("taxonomy %q: unknown parent %q", t.Code, t.Parent))
		}
	}
	return errors.Join(errs...)
}

// CategoryOptions adapts the rules for category.NewEngine.
func (r Rules) CategoryOptions() category.Options {
	return category.Options{
		Weights:   r.Category.Weights,
		StopWords: r.Category.StopWords,
		TypeTable: r.Category.TypeTable,
	}
}
