package imgio

import (
	"bytes"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/cristianadrielbraun/qroverlay/internal/qr"
)

func TestEncodeSVG(t *testing.T) {
	mat, err := qr.Encode("https://example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	p := qr.Params{
		SizePx:       320,
		ModuleColor:  color.NRGBA{R: 20, G: 30, B: 40, A: 255},
		AlphaPercent: 100,
	}

	var buf bytes.Buffer
	if err := EncodeSVG(&buf, mat, p); err != nil {
		t.Fatalf("EncodeSVG: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `viewBox="0 0 320 320"`) {
		t.Error("missing viewBox for requested size")
	}
	if !strings.Contains(out, `fill="rgb(20,30,40)"`) {
		t.Error("missing module fill color")
	}
	if strings.Contains(out, "rx=") {
		t.Error("rounding disabled but rx attribute present")
	}
	if n := strings.Count(out, "<rect"); n < 100 {
		t.Errorf("only %d module rects, symbol should have far more", n)
	}
}

func TestEncodeSVGRoundedWithBackground(t *testing.T) {
	mat, err := qr.Encode("https://example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	bg := color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	p := qr.Params{
		SizePx:          200,
		ModuleColor:     color.NRGBA{A: 255},
		Background:      &bg,
		AlphaPercent:    50,
		RoundingPercent: 30,
	}

	var buf bytes.Buffer
	if err := EncodeSVG(&buf, mat, p); err != nil {
		t.Fatalf("EncodeSVG: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `fill="rgb(250,250,250)"`) {
		t.Error("missing background rect")
	}
	if !strings.Contains(out, "rx=") {
		t.Error("rounded modules should carry an rx attribute")
	}
	if !strings.Contains(out, `fill-opacity="0.502"`) {
		t.Error("alpha percentage not reflected in fill-opacity")
	}
}

func TestEncodeSVGInvalidSize(t *testing.T) {
	mat, err := qr.Encode("x")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var buf bytes.Buffer
	if err := EncodeSVG(&buf, mat, qr.Params{}); !errors.Is(err, qr.ErrInvalidSize) {
		t.Errorf("got %v, want ErrInvalidSize", err)
	}
}
