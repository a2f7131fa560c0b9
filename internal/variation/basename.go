package variation

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	bracketSuffix = regexp.MustCompile(`\s*[(\[{][^()\[\]{}]*[)\]}]\s*$`)
	spaceRun      = regexp.MustCompile(`\s+`)
)

const trailingSeparators = " \t-–—,/|:;+&"

// Extractor derives base names and variant tokens from product names.
// It is immutable after construction and safe for concurrent use.
type Extractor struct {
	sizeToken *regexp.Regexp
	// phrases holds every colour, flavour, size and style entry, lower-cased,
	// multi-word entries first and longer entries before shorter ones.
	phrases []string
	colors  *regexp.Regexp
	sizes   *regexp.Regexp
	styles  *regexp.Regexp
}

func NewExtractor(v Vocabulary) *Extractor {
	var all []string
	for _, list := range [][]string{v.Colors, v.Flavors, v.Sizes, v.Styles} {
		for _, p := range list {
			p = normalizeSpaces(strings.ToLower(p))
			if p != "" {
				all = append(all, p)
			}
		}
	}
	return &Extractor{
		sizeToken: sizeTokenPattern(v.Units),
		phrases:   longestFirst(dedupe(all)),
		colors:    phrasePattern(v.Colors),
		sizes:     phrasePattern(v.Sizes),
		styles:    phrasePattern(v.Styles),
	}
}

// BaseName strips bracketed suffixes, numeric size tokens and trailing
// variant phrases until nothing more can be removed. A strip that would leave
// an empty name is not applied, so the result is never empty for a non-empty
// input. BaseName(BaseName(s)) == BaseName(s).
func (e *Extractor) BaseName(name string) string {
	cur := clean(name)
	for {
		next := e.strip(cur)
		if next == cur {
			return cur
		}
		cur = next
	}
}

// strip performs one reduction step; it returns s unchanged at a fixpoint.
func (e *Extractor) strip(s string) string {
	if out := clean(bracketSuffix.ReplaceAllString(s, "")); out != "" && out != s {
		return out
	}
	if e.sizeToken != nil {
		if out := clean(e.removeSizes(s)); out != "" && out != s {
			return out
		}
	}
	for _, p := range e.phrases {
		if out, ok := cutSuffixFold(s, p); ok {
			if out = clean(out); out != "" {
				return out
			}
		}
	}
	return s
}

// SizeToken returns the first numeric size in name formatted as "8 OZ".
func (e *Extractor) SizeToken(name string) string {
	if e.sizeToken == nil {
		return ""
	}
	ms := e.sizeMatches(name)
	if len(ms) == 0 {
		return ""
	}
	m := ms[0]
	return strings.ReplaceAll(name[m[2]:m[3]], ",", ".") + " " + strings.ToUpper(name[m[4]:m[5]])
}

// sizeMatches returns submatch indexes of the size tokens in s. "3 in 1"
// names a product kind, so an "in" followed by a number is not a size.
func (e *Extractor) sizeMatches(s string) [][]int {
	all := e.sizeToken.FindAllStringSubmatchIndex(s, -1)
	out := all[:0]
	for _, m := range all {
		if strings.EqualFold(s[m[4]:m[5]], "in") && followedByNumber(s[m[1]:]) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (e *Extractor) removeSizes(s string) string {
	var b strings.Builder
	last := 0
	for _, m := range e.sizeMatches(s) {
		b.WriteString(s[last:m[0]])
		b.WriteByte(' ')
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func followedByNumber(rest string) bool {
	rest = strings.TrimLeft(rest, " \t")
	return rest != "" && rest[0] >= '0' && rest[0] <= '9'
}

// Color returns the first colour phrase found in text.
func (e *Extractor) Color(text string) string { return findPhrase(e.colors, text) }

// Size returns the first size phrase (small, XL, ...) found in text.
func (e *Extractor) Size(text string) string { return findPhrase(e.sizes, text) }

// Style returns the first style phrase found in text.
func (e *Extractor) Style(text string) string { return findPhrase(e.styles, text) }

// Remainder is name without its base-name prefix. When the base is not a
// literal prefix (a size token was removed from the middle), the base's words
// are removed instead.
func Remainder(name, base string) string {
	name = clean(name)
	if len(name) >= len(base) && strings.EqualFold(name[:len(base)], base) {
		return clean(strings.TrimLeft(name[len(base):], trailingSeparators))
	}
	drop := make(map[string]int)
	for _, w := range strings.Fields(strings.ToLower(base)) {
		drop[w]++
	}
	var kept []string
	for _, w := range strings.Fields(name) {
		lw := strings.ToLower(w)
		if drop[lw] > 0 {
			drop[lw]--
			continue
		}
		kept = append(kept, w)
	}
	return clean(strings.TrimLeft(strings.Join(kept, " "), trailingSeparators))
}

func sizeTokenPattern(units []string) *regexp.Regexp {
	var quoted []string
	for _, u := range longestFirst(dedupe(lowerAll(units))) {
		quoted = append(quoted, regexp.QuoteMeta(u))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(?:fl\.?\s*)?(` + strings.Join(quoted, "|") + `)\b\.?`)
}

func phrasePattern(list []string) *regexp.Regexp {
	var quoted []string
	for _, p := range longestFirst(dedupe(lowerAll(list))) {
		if p == "" {
			continue
		}
		quoted = append(quoted, strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|[^\pL\pN])(` + strings.Join(quoted, "|") + `)(?:$|[^\pL\pN])`)
}

func findPhrase(re *regexp.Regexp, text string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return normalizeSpaces(m[1])
}

// cutSuffixFold removes phrase from the end of s when it is preceded by a
// separator or is the whole string.
func cutSuffixFold(s, phrase string) (string, bool) {
	if len(s) < len(phrase) {
		return s, false
	}
	cut := len(s) - len(phrase)
	if !utf8.RuneStart(s[cut]) || !strings.EqualFold(s[cut:], phrase) {
		return s, false
	}
	if cut > 0 && !strings.ContainsRune(trailingSeparators, rune(s[cut-1])) {
		return s, false
	}
	return s[:cut], true
}

func clean(s string) string {
	return strings.TrimRight(normalizeSpaces(s), trailingSeparators)
}

func normalizeSpaces(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

func longestFirst(list []string) []string {
	out := append([]string(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := len(strings.Fields(out[i])), len(strings.Fields(out[j]))
		if wi != wj {
			return wi > wj
		}
		return len(out[i]) > len(out[j])
	})
	return out
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0:0]
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func lowerAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, normalizeSpaces(strings.ToLower(s)))
	}
	return out
}
