package feed

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"wholesale-catalog/internal/domain"
)

// readCSV reads a header-indexed delimited feed. Column names are matched
// case-insensitively; unknown columns are ignored.
func readCSV(br *bufio.Reader, delimiter rune) (Result, error) {
	if delimiter == 0 {
		delimiter = sniffDelimiter(br)
	}
	r := csv.NewReader(br)
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1 // supplier exports are ragged

	headers, err := r.Read()
	if err != nil {
		return Result{}, fmt.Errorf("%w: read headers: %v", domain.ErrUnreadableFeed, err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return Result{}, fmt.Errorf("%w: missing name column", domain.ErrUnreadableFeed)
	}
	_, hasSKU := index["sku"]
	_, hasBarcode := index["barcode"]
	if !hasSKU && !hasBarcode {
		return Result{}, fmt.Errorf("%w: missing sku and barcode columns", domain.ErrUnreadableFeed)
	}

	var res Result
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Issues = append(res.Issues, Issue{Line: perr.StartLine, Message: perr.Err.Error()})
				continue
			}
			res.Issues = append(res.Issues, Issue{Message: err.Error()})
			if len(res.Records) == 0 {
				return res, fmt.Errorf("%w: %v", domain.ErrUnreadableFeed, err)
			}
			return res, nil
		}
		line, _ := r.FieldPos(0)
		if blank(row) {
			continue
		}
		f := parseRow(row, index)
		rec, err := f.record(line)
		if err != nil {
			res.Issues = append(res.Issues, Issue{Line: line, Key: f.key(), Message: err.Error()})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func parseRow(row []string, index map[string]int) fields {
	get := func(key string) string { return pick(row, index, key) }
	f := fields{
		sku:              get("sku"),
		barcode:          get("barcode"),
		name:             get("name"),
		description:      get("description"),
		price:            get("price"),
		stock:            get("stock_quantity"),
		active:           get("active"),
		onSale:           get("on_sale"),
		discountable:     get("discountable"),
		length:           get("length"),
		width:            get("width"),
		height:           get("height"),
		weight:           get("weight"),
		color:            get("color"),
		material:         get("material"),
		size:             get("size"),
		manufacturerCode: get("manufacturer_code"),
		manufacturerName: get("manufacturer"),
		typeCode:         get("type_code"),
		typeName:         get("type"),
	}
	if f.width == "" {
		f.width = get("diameter")
	}
	for i := 1; i <= 3; i++ {
		f.categories = append(f.categories, get("category_"+strconv.Itoa(i)))
		f.images = append(f.images, get("image_"+strconv.Itoa(i)))
	}
	f.categories = append(f.categories, strings.Split(get("categories"), "|")...)
	f.images = append(f.images, strings.Split(get("images"), "|")...)
	return f
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks the most frequent of ';', '\t' and ',' in the header
// line, preferring ',' on ties.
func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, count := ',', bytes.Count(head, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(head, []byte(string(c))); n > count {
			best, count = c, n
		}
	}
	return best
}
