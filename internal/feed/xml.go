package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"wholesale-catalog/internal/domain"
)

type xmlCode struct {
	Code string `xml:"code,attr"`
	Name string `xml:",chardata"`
}

type xmlProduct struct {
	Active        string    `xml:"active,attr"`
	OnSale        string    `xml:"on_sale,attr"`
	Discountable  string    `xml:"discountable,attr"`
	SKU           string    `xml:"sku"`
	Barcode       string    `xml:"barcode"`
	Name          string    `xml:"name"`
	Description   string    `xml:"description"`
	Price         string    `xml:"price"`
	StockQuantity string    `xml:"stock_quantity"`
	Length        string    `xml:"length"`
	Width         string    `xml:"width"`
	Diameter      string    `xml:"diameter"`
	Height        string    `xml:"height"`
	Weight        string    `xml:"weight"`
	Color         string    `xml:"color"`
	Material      string    `xml:"material"`
	Size          string    `xml:"size"`
	Manufacturer  xmlCode   `xml:"manufacturer"`
	Type          xmlCode   `xml:"type"`
	Categories    []xmlCode `xml:"categories>category"`
	Images        []string  `xml:"images>image"`
}

func (p xmlProduct) fields() fields {
	f := fields{
		sku: p.SKU, barcode: p.Barcode, name: p.Name, description: p.Description,
		price: p.Price, stock: p.StockQuantity,
		active: p.Active, onSale: p.OnSale, discountable: p.Discountable,
		length: p.Length, width: p.Width, height: p.Height, weight: p.Weight,
		color: p.Color, material: p.Material, size: p.Size,
		manufacturerCode: p.Manufacturer.Code, manufacturerName: p.Manufacturer.Name,
		typeCode: p.Type.Code, typeName: p.Type.Name,
		images: p.Images,
	}
	if f.width == "" {
		f.width = p.Diameter
	}
	for _, c := range p.Categories {
		code := c.Code
		if code == "" {
			code = c.Name
		}
		f.categories = append(f.categories, code)
	}
	return f
}

// readXML streams <product> elements at any depth. Each element is decoded on
// its own so one bad value only skips that product; a syntax error ends the
// feed.
func readXML(r io.Reader) (Result, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := Encoding(label)
		if err != nil || enc == nil {
			return input, err
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var res Result
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			res.Issues = append(res.Issues, Issue{Line: line, Message: err.Error()})
			if len(res.Records) == 0 {
				return res, fmt.Errorf("%w: %v", domain.ErrUnreadableFeed, err)
			}
			return res, nil
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "product" {
			continue
		}
		line, _ := dec.InputPos()
		var p xmlProduct
		if err := dec.DecodeElement(&p, &start); err != nil {
			res.Issues = append(res.Issues, Issue{Line: line, Message: err.Error()})
			if len(res.Records) == 0 {
				return res, fmt.Errorf("%w: %v", domain.ErrUnreadableFeed, err)
			}
			return res, nil
		}
		f := p.fields()
		rec, err := f.record(line)
		if err != nil {
			res.Issues = append(res.Issues, Issue{Line: line, Key: f.key(), Message: err.Error()})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}
