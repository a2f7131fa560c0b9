package variation

// Vocabulary holds the keyword tables used to strip variant tokens from
// product names and to read option values back out of them. Entries are
// matched case-insensitively.
type Vocabulary struct {
	Colors           []string `mapstructure:"colors"`
	Flavors          []string `mapstructure:"flavors"`
	Sizes            []string `mapstructure:"sizes"`
	Styles           []string `mapstructure:"styles"`
	FlavorIndicators []string `mapstructure:"flavor_indicators"`
	Units            []string `mapstructure:"units"`
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Colors: []string{
			"black", "white", "red", "blue", "green", "pink", "purple", "yellow", "orange",
			"clear", "gold", "silver", "brown", "gray", "grey", "beige", "teal", "violet",
			"magenta", "lavender", "ivory", "nude", "tan", "bronze", "chrome", "smoke",
			"hot pink", "light pink", "baby pink", "light blue", "dark blue", "navy blue",
			"sky blue", "royal blue", "neon green", "lime green", "rose gold",
			"glow in the dark", "multi color", "multicolor", "rainbow",
		},
		Flavors: []string{
			"cherry", "strawberry", "vanilla", "chocolate", "mint", "peppermint", "watermelon",
			"banana", "grape", "apple", "lemon", "lemonade", "coconut", "mango", "peach",
			"raspberry", "blueberry", "caramel", "cinnamon", "coffee", "bubblegum",
			"unflavored", "original", "tropical", "pineapple", "kiwi", "passionfruit",
			"cherry lemonade", "pina colada", "green apple", "blue raspberry", "cotton candy",
			"salted caramel", "bubble gum", "passion fruit", "fruit punch", "wild cherry",
			"strawberry kiwi", "tropical fruit", "french vanilla", "mint chocolate",
		},
		Sizes: []string{
			"small", "medium", "large", "xs", "xl", "xxl", "2xl", "3xl", "x-large",
			"mini", "petite", "jumbo", "queen", "s/m", "m/l", "l/xl",
			"extra small", "extra large", "one size", "plus size", "queen size",
		},
		FlavorIndicators: []string{
			"flavor", "scent", "taste", "natural", "vanilla", "chocolate", "strawberry",
		},
		Units: []string{"oz", "ml", "g", "lb", "in", "inch", "inches", "mm", "cm"},
	}
}
