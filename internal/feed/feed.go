// Package feed reads supplier product feeds (XML or delimited text) into
// domain.ProductRecord values.
package feed

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"wholesale-catalog/internal/domain"
)

type Format string

const (
	FormatAuto Format = "auto"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatXML, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFeed, s)
	}
}

// Issue is a record the reader had to skip, or a problem that stopped reading.
type Issue struct {
	Line    int    `json:"line"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

type Result struct {
	Records []domain.ProductRecord
	Issues  []Issue
}

type Options struct {
	// Encoding names the legacy charset of a CSV feed such as windows-1251.
	// Empty means UTF-8.
	Encoding string
	// Delimiter for CSV feeds; zero sniffs it from the header line.
	Delimiter rune
}

// Read parses a whole feed. It fails only when the feed yields no records
// and could not be read to the end.
func Read(r io.Reader, format Format, opts Options) (Result, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	if format == "" || format == FormatAuto {
		f, err := Detect(br)
		if err != nil {
			return Result{}, err
		}
		format = f
	}
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	switch format {
	case FormatXML:
		// XML names its charset in the declaration.
		return readXML(br)
	case FormatCSV:
		enc, err := Encoding(opts.Encoding)
		if err != nil {
			return Result{}, err
		}
		var src io.Reader = br
		if enc != nil {
			src = transform.NewReader(br, enc.NewDecoder())
		}
		return readCSV(bufio.NewReaderSize(src, 64<<10), opts.Delimiter)
	}
	return Result{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFeed, format)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Detect looks at the first significant byte without consuming input: '<'
// means XML, anything else is treated as delimited text.
func Detect(r *bufio.Reader) (Format, error) {
	for n := 64; ; n *= 2 {
		buf, err := r.Peek(n)
		trimmed := bytes.TrimLeft(bytes.TrimPrefix(buf, utf8BOM), " \t\r\n")
		if len(trimmed) > 0 {
			if trimmed[0] == '<' {
				return FormatXML, nil
			}
			return FormatCSV, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: empty input", domain.ErrUnreadableFeed)
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				return "", fmt.Errorf("%w: no content in first %d bytes", domain.ErrUnreadableFeed, len(buf))
			}
			return "", fmt.Errorf("%w: %v", domain.ErrUnreadableFeed, err)
		}
	}
}

// Encoding resolves a charset name; nil means UTF-8.
func Encoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown feed encoding %q", name)
	}
	return enc, nil
}

// fields collects the raw strings of one record before conversion.
type fields struct {
	sku, barcode, name, description    string
	price, stock                       string
	active, onSale, discountable       string
	length, width, height, weight      string
	color, material, size              string
	manufacturerCode, manufacturerName string
	typeCode, typeName                 string
	categories, images                 []string
}

func (f fields) key() string {
	if f.barcode != "" {
		return strings.TrimSpace(f.barcode)
	}
	return strings.TrimSpace(f.sku)
}

func (f fields) record(line int) (domain.ProductRecord, error) {
	rec := domain.ProductRecord{
		SKU:              strings.TrimSpace(f.sku),
		Barcode:          strings.TrimSpace(f.barcode),
		Name:             strings.Join(strings.Fields(f.name), " "),
		Description:      strings.TrimSpace(f.description),
		Active:           flag(f.active, true),
		OnSale:           flag(f.onSale, false),
		Discountable:     flag(f.discountable, true),
		ManufacturerCode: strings.TrimSpace(f.manufacturerCode),
		ManufacturerName: strings.TrimSpace(f.manufacturerName),
		TypeCode:         strings.TrimSpace(f.typeCode),
		TypeName:         strings.TrimSpace(f.typeName),
		Attributes: domain.Attributes{
			Color:    strings.TrimSpace(f.color),
			Material: strings.TrimSpace(f.material),
			Size:     strings.TrimSpace(f.size),
		},
		CategoryCodes: compact(f.categories),
		Images:        compact(f.images),
		Line:          line,
	}
	var err error
	if rec.WholesalePrice, err = number("price", f.price); err != nil {
		return rec, err
	}
	stock, err := number("stock_quantity", f.stock)
	if err != nil {
		return rec, err
	}
	rec.StockQuantity = int(stock.IntPart())
	dims := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"length", f.length, &rec.Dimensions.Length},
		{"width", f.width, &rec.Dimensions.Width},
		{"height", f.height, &rec.Dimensions.Height},
		{"weight", f.weight, &rec.Dimensions.Weight},
	}
	for _, d := range dims {
		if *d.dst, err = number(d.name, d.raw); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// number parses a decimal. Whichever of '.' and ',' comes last is the decimal
// separator and the other one groups thousands, so "1.234,50" and "1,234.50"
// are the same amount. Blank is 0.
func number(field, raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, nil
	}
	s, ok := normalizeNumber(strings.TrimPrefix(s, "$"))
	if !ok {
		return decimal.Zero, fmt.Errorf("ambiguous %s %q", field, raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", field, raw)
	}
	return d, nil
}

func normalizeNumber(s string) (string, bool) {
	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	if lastDot < 0 && lastComma < 0 {
		return s, true
	}
	dec, group := ",", "."
	if lastDot > lastComma {
		dec, group = ".", ","
	}
	if strings.Count(s, dec) > 1 {
		// a repeated separator can only be grouping: 1,234,567
		if strings.Contains(s, group) || !grouped(s, dec) {
			return "", false
		}
		return strings.ReplaceAll(s, dec, ""), true
	}
	at := strings.LastIndex(s, dec)
	whole, frac := s[:at], s[at+1:]
	if strings.Contains(whole, group) && !grouped(whole, group) {
		return "", false
	}
	return strings.ReplaceAll(whole, group, "") + "." + frac, true
}

// grouped reports whether s splits on sep into a 1-3 digit head followed by
// groups of exactly three.
func grouped(s, sep string) bool {
	parts := strings.Split(strings.TrimPrefix(s, "-"), sep)
	if n := len(parts[0]); n < 1 || n > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

func flag(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on", "active":
		return true
	case "0", "false", "no", "n", "off", "inactive":
		return false
	}
	return def
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
