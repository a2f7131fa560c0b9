package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	// registered source formats
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
)

const (
	TargetSize  = 650
	JPEGQuality = 90
)

// Fit returns the dimensions of a w×h image scaled down to fit inside a
// max×max box. Images already inside the box keep their size.
func Fit(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		nh := (h*max + w/2) / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := (w*max + h/2) / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}

// Render decodes src, shrinks it to fit TargetSize, centres it on a white
// TargetSize square and encodes the result as JPEG.
func Render(src []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, &Failure{Kind: KindDecode, Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &Failure{Kind: KindDecode, Err: fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())}
	}
	w, h := Fit(b.Dx(), b.Dy(), TargetSize)

	canvas := image.NewRGBA(image.Rect(0, 0, TargetSize, TargetSize))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	x0 := (TargetSize - w) / 2
	y0 := (TargetSize - h) / 2
	dst := image.Rect(x0, y0, x0+w, y0+h)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(canvas, dst, img, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(canvas, dst, img, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, &Failure{Kind: KindEncode, Err: err}
	}
	return buf.Bytes(), nil
}
