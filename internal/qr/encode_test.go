package qr

import (
	"errors"
	"testing"
)

func TestEncodeEmptyPayload(t *testing.T) {
	if _, err := Encode(""); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("Encode(\"\") = %v, want ErrEmptyPayload", err)
	}
}

func TestEncodeMatrixShape(t *testing.T) {
	m, err := Encode("https://example.com/page")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	w := m.Width()
	if w < 21 {
		t.Fatalf("matrix width %d, want at least 21", w)
	}
	// Symbol versions step in increments of 4 modules from 21.
	if (w-21)%4 != 0 {
		t.Errorf("matrix width %d is not a valid symbol size", w)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode("https://example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode("https://example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a.Width() != b.Width() {
		t.Fatalf("widths differ: %d vs %d", a.Width(), b.Width())
	}
	for y := 0; y < a.Width(); y++ {
		for x := 0; x < a.Width(); x++ {
			if a.Dark(x, y) != b.Dark(x, y) {
				t.Fatalf("module (%d,%d) differs between identical encodes", x, y)
			}
		}
	}
}

func TestEncodeHasFinderPattern(t *testing.T) {
	m, err := Encode("hello")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// The top-left finder pattern always has a dark border and center.
	if !m.Dark(0, 0) || !m.Dark(3, 3) || !m.Dark(6, 6) {
		t.Error("top-left finder pattern modules are not dark")
	}
	if m.Dark(1, 1) {
		t.Error("finder pattern inner ring module should be light")
	}
}
