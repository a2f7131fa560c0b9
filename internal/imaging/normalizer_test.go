package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"wholesale-catalog/internal/retry"
)

type countingFetcher struct {
	calls atomic.Int32
	data  map[string][]byte
	errs  map[string]error
}

func (f *countingFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	f.calls.Add(1)
	if err, ok := f.errs[ref]; ok {
		return nil, err
	}
	if b, ok := f.data[ref]; ok {
		return b, nil
	}
	return nil, retry.Stop(errors.New("no such image"))
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestNormalizer(t *testing.T, dir string, f Fetcher, opts Options) *Normalizer {
	t.Helper()
	cache, err := NewDiskCache(dir)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	if opts.Policy == (retry.Policy{}) {
		opts.Policy = retry.Policy{Retries: 3, Backoff: time.Millisecond}
	}
	return NewNormalizer(f, cache, opts, nil)
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	img, err := jpeg.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 240 && g>>8 > 240 && b>>8 > 240
}

func TestNormalize_ProducesSquareArtifacts(t *testing.T) {
	red := color.RGBA{R: 200, A: 255}
	f := &countingFetcher{data: map[string][]byte{
		"wide": pngBytes(t, 1300, 650, red),
		"tall": pngBytes(t, 400, 1000, red),
	}}
	n := newTestNormalizer(t, t.TempDir(), f, Options{Workers: 2})
	rep := n.Normalize(context.Background(), []string{"wide", "tall"}, "Test Product")
	if len(rep.Failures) != 0 || len(rep.Artifacts) != 2 {
		t.Fatalf("unexpected report %+v", rep)
	}
	for i, a := range rep.Artifacts {
		if a.Width != TargetSize || a.Height != TargetSize || a.Index != i {
			t.Fatalf("artifact %d = %+v", i, a)
		}
		img := decodeFile(t, a.LocalPath)
		if b := img.Bounds(); b.Dx() != TargetSize || b.Dy() != TargetSize {
			t.Fatalf("file %s is %dx%d", a.LocalPath, b.Dx(), b.Dy())
		}
	}
	wide := decodeFile(t, rep.Artifacts[0].LocalPath)
	if !isWhite(wide.At(5, 5)) {
		t.Fatalf("expected white letterbox at the top of a wide image")
	}
	if isWhite(wide.At(325, 325)) {
		t.Fatalf("expected image content in the centre")
	}
}

func TestNormalize_SmallImageNotUpscaled(t *testing.T) {
	f := &countingFetcher{data: map[string][]byte{"small": pngBytes(t, 100, 50, color.RGBA{B: 200, A: 255})}}
	n := newTestNormalizer(t, t.TempDir(), f, Options{})
	rep := n.Normalize(context.Background(), []string{"small"}, "Small")
	if len(rep.Artifacts) != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	img := decodeFile(t, rep.Artifacts[0].LocalPath)
	if isWhite(img.At(325, 325)) {
		t.Fatalf("expected content at the centre")
	}
	if !isWhite(img.At(325, 200)) || !isWhite(img.At(200, 325)) {
		t.Fatalf("small image must not be scaled up")
	}
}

func TestNormalize_SecondRunServedFromCache(t *testing.T) {
	dir := t.TempDir()
	src := pngBytes(t, 800, 600, color.RGBA{G: 150, A: 255})

	first := &countingFetcher{data: map[string][]byte{"a": src}}
	rep1 := newTestNormalizer(t, dir, first, Options{}).Normalize(context.Background(), []string{"a"}, "Cached Thing")
	if len(rep1.Artifacts) != 1 || first.calls.Load() != 1 {
		t.Fatalf("first run: report %+v, calls %d", rep1, first.calls.Load())
	}

	second := &countingFetcher{data: map[string][]byte{"a": src}}
	rep2 := newTestNormalizer(t, dir, second, Options{}).Normalize(context.Background(), []string{"a"}, "Cached Thing")
	if got := second.calls.Load(); got != 0 {
		t.Fatalf("second run fetched %d times, want 0", got)
	}
	if len(rep2.Artifacts) != 1 || !rep2.Artifacts[0].Cached {
		t.Fatalf("second run report %+v", rep2)
	}
	if rep1.Artifacts[0].ContentHash != rep2.Artifacts[0].ContentHash {
		t.Fatalf("hash changed between runs")
	}
}

func TestNormalize_DecodeFailureNotRetried(t *testing.T) {
	f := &countingFetcher{data: map[string][]byte{"junk": []byte("not an image")}}
	n := newTestNormalizer(t, t.TempDir(), f, Options{})
	rep := n.Normalize(context.Background(), []string{"junk"}, "Broken")
	if len(rep.Artifacts) != 0 || len(rep.Failures) != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if rep.Failures[0].Kind != KindDecode {
		t.Fatalf("kind = %s, want decode", rep.Failures[0].Kind)
	}
	if f.calls.Load() != 1 {
		t.Fatalf("decode failure fetched %d times", f.calls.Load())
	}
}

func TestNormalize_ContinuesAfterFetchFailure(t *testing.T) {
	f := &countingFetcher{
		data: map[string][]byte{"good": pngBytes(t, 10, 10, color.Black)},
		errs: map[string]error{"bad": errors.New("connection reset")},
	}
	n := newTestNormalizer(t, t.TempDir(), f, Options{Policy: retry.Policy{Retries: 2, Backoff: time.Millisecond}})
	rep := n.Normalize(context.Background(), []string{"bad", "", "good"}, "Mixed")
	if len(rep.Artifacts) != 1 || rep.Artifacts[0].Index != 2 {
		t.Fatalf("unexpected artifacts %+v", rep.Artifacts)
	}
	if len(rep.Failures) != 1 {
		t.Fatalf("expected one failure, got %d", len(rep.Failures))
	}
	fail := rep.Failures[0]
	if fail.Kind != KindFetch || fail.Attempts != 3 || fail.Index != 0 {
		t.Fatalf("unexpected failure %+v", fail)
	}
}

type countingPublisher struct{ calls atomic.Int32 }

func (p *countingPublisher) Publish(_ context.Context, hash, _ string, _ []byte) (string, error) {
	p.calls.Add(1)
	return "https://cdn.example/" + hash, nil
}

func TestNormalize_PublishesEachHashOnce(t *testing.T) {
	src := pngBytes(t, 30, 30, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	f := &countingFetcher{data: map[string][]byte{"x": src}}
	pub := &countingPublisher{}
	n := newTestNormalizer(t, t.TempDir(), f, Options{Publisher: pub, Index: NewMemoryIndex()})

	a := n.Normalize(context.Background(), []string{"x"}, "First")
	b := n.Normalize(context.Background(), []string{"x"}, "Second")
	if len(a.Artifacts) != 1 || len(b.Artifacts) != 1 {
		t.Fatalf("unexpected reports %+v %+v", a, b)
	}
	if a.Artifacts[0].PublicURL == "" || a.Artifacts[0].PublicURL != b.Artifacts[0].PublicURL {
		t.Fatalf("urls %q and %q", a.Artifacts[0].PublicURL, b.Artifacts[0].PublicURL)
	}
	if pub.calls.Load() != 1 {
		t.Fatalf("published %d times, want 1", pub.calls.Load())
	}
}

func TestFit(t *testing.T) {
	cases := []struct{ w, h, ww, wh int }{
		{1300, 650, 650, 325},
		{400, 1000, 260, 650},
		{650, 650, 650, 650},
		{100, 50, 100, 50},
		{5000, 1, 650, 1},
	}
	for _, c := range cases {
		w, h := Fit(c.w, c.h, TargetSize)
		if w != c.ww || h != c.wh {
			t.Fatalf("Fit(%d,%d) = %d,%d want %d,%d", c.w, c.h, w, h, c.ww, c.wh)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Foo Bar Red":       "foo-bar-red",
		"  Crème   Brûlée!": "creme-brulee",
		"8 oz. / Cherry":    "8-oz-cherry",
		"***":               "product",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
