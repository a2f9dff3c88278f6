// Package compose places a rendered QR raster onto a base image.
package compose

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
)

// Anchor selects the reference corner for placement, or absolute
// coordinates when Custom.
type Anchor int

const (
	Southeast Anchor = iota
	Southwest
	Northeast
	Northwest
	Custom
)

var anchorNames = map[Anchor]string{
	Southeast: "se",
	Southwest: "sw",
	Northeast: "ne",
	Northwest: "nw",
	Custom:    "custom",
}

func (a Anchor) String() string {
	if s, ok := anchorNames[a]; ok {
		return s
	}
	return fmt.Sprintf("anchor(%d)", int(a))
}

// ParseAnchor maps "nw", "ne", "sw", "se" and "custom" to an Anchor.
func ParseAnchor(s string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "se", "southeast":
		return Southeast, nil
	case "sw", "southwest":
		return Southwest, nil
	case "ne", "northeast":
		return Northeast, nil
	case "nw", "northwest":
		return Northwest, nil
	case "custom", "xy":
		return Custom, nil
	}
	return 0, fmt.Errorf("unknown anchor %q", s)
}

// Position computes the top-left pixel of a qw x qh raster placed on a
// bw x bh base. For the corner anchors (dx, dy) is a margin from that
// corner; for Custom it is an absolute top-left coordinate. All
// subtractions saturate at zero and the result is clamped so the placed
// rectangle stays fully inside the base bounds.
func Position(a Anchor, bw, bh, qw, qh, dx, dy int) (int, int) {
	if dx < 0 {
		dx = 0
	}
	if dy < 0 {
		dy = 0
	}
	maxX := sat(bw - qw)
	maxY := sat(bh - qh)

	var x, y int
	switch a {
	case Northwest:
		x, y = dx, dy
	case Northeast:
		x, y = sat(bw-qw-dx), dy
	case Southwest:
		x, y = dx, sat(bh-qh-dy)
	case Southeast:
		x, y = sat(bw-qw-dx), sat(bh-qh-dy)
	default: // Custom
		x, y = dx, dy
	}
	if x > maxX {
		x = maxX
	}
	if y > maxY {
		y = maxY
	}
	return x, y
}

// Overlay alpha-blends qr onto base at (x, y) in a single in-place
// pass. Where qr is transparent the base keeps its own pixels,
// including their alpha.
func Overlay(base draw.Image, qr image.Image, x, y int) {
	b := qr.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(base, r, qr, b.Min, draw.Over)
}

func sat(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
