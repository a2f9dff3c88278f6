package preview

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/cristianadrielbraun/qroverlay/internal/compose"
	"github.com/cristianadrielbraun/qroverlay/internal/imgio"
	"github.com/cristianadrielbraun/qroverlay/internal/qr"
)

func testInput() Input {
	return Input{
		Payload: "https://example.com",
		Render: qr.Params{
			SizePx:       80,
			ModuleColor:  color.NRGBA{A: 255},
			AlphaPercent: 100,
		},
		Anchor:  compose.Southeast,
		OffsetX: 10,
		OffsetY: 10,
	}
}

func TestSignatureStable(t *testing.T) {
	if Signature(testInput()) != Signature(testInput()) {
		t.Error("identical inputs produced different signatures")
	}
}

func TestSignatureChangesWithEveryParameter(t *testing.T) {
	base := Signature(testInput())

	mutations := map[string]func(*Input){
		"payload":  func(in *Input) { in.Payload = "https://other.example" },
		"size":     func(in *Input) { in.Render.SizePx = 81 },
		"rounding": func(in *Input) { in.Render.RoundingPercent = 20 },
		"alpha":    func(in *Input) { in.Render.AlphaPercent = 50 },
		"module":   func(in *Input) { in.Render.ModuleColor = color.NRGBA{R: 200, A: 255} },
		"bg":       func(in *Input) { c := color.NRGBA{R: 1, G: 2, B: 3, A: 255}; in.Render.Background = &c },
		"anchor":   func(in *Input) { in.Anchor = compose.Northwest },
		"offset":   func(in *Input) { in.OffsetX = 11 },
		"bulk":     func(in *Input) { in.Bulk = true; in.BulkText = "https://example.com" },
	}
	for name, mutate := range mutations {
		in := testInput()
		mutate(&in)
		if Signature(in) == base {
			t.Errorf("%s change did not alter the signature", name)
		}
	}
}

func TestCacheMemoizes(t *testing.T) {
	var c Cache
	a, err := c.Render(testInput())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := c.Render(testInput())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if a != b {
		t.Error("unchanged input re-rendered instead of hitting the cache")
	}

	in := testInput()
	in.Render.RoundingPercent = 30
	d, err := c.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if d == b {
		t.Error("changed input returned the stale raster")
	}
}

func TestCacheReportsErrorsInline(t *testing.T) {
	var c Cache
	in := testInput()
	in.Payload = "  "
	if _, err := c.Render(in); !errors.Is(err, qr.ErrEmptyPayload) {
		t.Errorf("got %v, want ErrEmptyPayload", err)
	}
	// The error is memoized like a raster.
	if _, err := c.Render(in); !errors.Is(err, qr.ErrEmptyPayload) {
		t.Errorf("cached call: got %v, want ErrEmptyPayload", err)
	}
}

func TestStandalonePreviewSize(t *testing.T) {
	var c Cache
	img, err := c.Render(testInput())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 80 || img.Bounds().Dy() != 80 {
		t.Errorf("got %v, want 80x80", img.Bounds())
	}
}

func TestBulkPreviewUsesFirstLine(t *testing.T) {
	var c Cache
	in := testInput()
	in.Bulk = true
	in.Payload = ""
	in.BulkText = "\n  https://first.example  \nhttps://second.example\n"
	img, err := c.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 80 {
		t.Errorf("got %v, want 80x80", img.Bounds())
	}

	in.BulkText = "   \n \n"
	if _, err := c.Render(in); !errors.Is(err, qr.ErrEmptyPayload) {
		t.Errorf("blank bulk list: got %v, want ErrEmptyPayload", err)
	}
}

func TestOverlayPreviewFitsLargeBase(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	base := image.NewNRGBA(image.Rect(0, 0, 2400, 1200))
	if err := imgio.Write(base, basePath, imgio.PNG, nil); err != nil {
		t.Fatalf("write base: %v", err)
	}

	var c Cache
	in := testInput()
	in.BasePath = basePath
	img, err := c.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// 2400x1200 fits into 1200x1200 as 1200x600.
	if img.Bounds().Dx() != 1200 || img.Bounds().Dy() != 600 {
		t.Errorf("got %v, want 1200x600", img.Bounds())
	}
}

func TestOverlayPreviewKeepsSmallBase(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	base := image.NewNRGBA(image.Rect(0, 0, 400, 300))
	if err := imgio.Write(base, basePath, imgio.PNG, nil); err != nil {
		t.Fatalf("write base: %v", err)
	}

	var c Cache
	in := testInput()
	in.BasePath = basePath
	img, err := c.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 300 {
		t.Errorf("got %v, want 400x300", img.Bounds())
	}
}
