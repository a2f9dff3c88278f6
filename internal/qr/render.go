package qr

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

const (
	// quietZone is the blank margin around the symbol, in modules.
	// Four modules is the documented minimum for reliable scanning.
	quietZone = 4

	// superSample is the oversampling factor for the intermediate
	// canvas. Rounded corners are drawn at this resolution and smoothed
	// by the final downsample.
	superSample = 4

	// MaxSizePx caps the output edge length. Larger requests are
	// clamped rather than rejected.
	MaxSizePx = 4096
)

// ErrInvalidSize is returned for a zero or negative target size.
var ErrInvalidSize = errors.New("target size must be positive")

// Params describes one render call. All fields are captured by value;
// a Params is never mutated by the renderer.
type Params struct {
	Payload     string
	SizePx      int
	ModuleColor color.NRGBA

	// Background nil means a fully transparent background; otherwise
	// the canvas is filled with this color at the uniform alpha.
	Background *color.NRGBA

	// AlphaPercent (0-100) applies to module and background pixels alike.
	AlphaPercent int

	// RoundingPercent (0-50) is the corner radius as a percentage of
	// one module's rendered size. Values above 50 are clamped so a
	// module never rounds past its own half-width.
	RoundingPercent int
}

// Render produces a SizePx x SizePx raster of the encoded payload with
// a four-module quiet zone. The symbol is drawn onto a supersampled
// canvas and downsampled with Lanczos resampling, which anti-aliases
// both the module grid and any corner rounding.
func Render(p Params) (*image.NRGBA, error) {
	if p.SizePx <= 0 {
		return nil, ErrInvalidSize
	}
	if p.SizePx > MaxSizePx {
		p.SizePx = MaxSizePx
	}
	mat, err := Encode(p.Payload)
	if err != nil {
		return nil, err
	}
	canvas := rasterize(mat, p)
	return imaging.Resize(canvas, p.SizePx, p.SizePx, imaging.Lanczos), nil
}

// Alpha8 converts a 0-100 percentage to an 8-bit alpha value.
func Alpha8(percent int) uint8 {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return uint8((percent*255 + 50) / 100)
}

// rasterize draws the supersampled canvas. Each dark module is a filled
// square, or a square with its corners replaced by quarter circles when
// rounding is requested. Fills write pixels directly so strips and
// corner circles can overlap without accumulating alpha at the seams.
func rasterize(mat *Matrix, p Params) *image.NRGBA {
	total := mat.Width() + 2*quietZone
	target := p.SizePx
	if target < total {
		target = total
	}
	modulePx := target * superSample / total
	if modulePx < 1 {
		modulePx = 1
	}
	edge := modulePx * total

	a := Alpha8(p.AlphaPercent)
	mod := color.NRGBA{R: p.ModuleColor.R, G: p.ModuleColor.G, B: p.ModuleColor.B, A: a}

	img := image.NewNRGBA(image.Rect(0, 0, edge, edge))
	if p.Background != nil {
		bg := color.NRGBA{R: p.Background.R, G: p.Background.G, B: p.Background.B, A: a}
		fillRect(img, 0, 0, edge, edge, bg)
	}

	r := roundingRadius(modulePx, p.RoundingPercent)

	for y := 0; y < mat.Width(); y++ {
		for x := 0; x < mat.Width(); x++ {
			if !mat.Dark(x, y) {
				continue
			}
			x0 := (x + quietZone) * modulePx
			y0 := (y + quietZone) * modulePx
			if r <= 0 {
				fillRect(img, x0, y0, modulePx, modulePx, mod)
				continue
			}
			// Center strips, leaving r pixels free on each side.
			if modulePx-2*r > 0 {
				fillRect(img, x0+r, y0, modulePx-2*r, modulePx, mod)
				fillRect(img, x0, y0+r, modulePx, modulePx-2*r, mod)
			}
			// Quarter-circle corners, centered at the inset corners.
			cx0, cy0 := x0+r, y0+r
			cx1, cy1 := x0+modulePx-r-1, y0+modulePx-r-1
			fillCircle(img, cx0, cy0, r, mod)
			fillCircle(img, cx1, cy0, r, mod)
			fillCircle(img, cx0, cy1, r, mod)
			fillCircle(img, cx1, cy1, r, mod)
		}
	}
	return img
}

// roundingRadius converts the rounding percentage to supersampled
// pixels, clamped to half the module so adjacent corner circles can
// touch but never overlap.
func roundingRadius(modulePx, percent int) int {
	if percent < 0 {
		percent = 0
	}
	r := (modulePx*percent + 50) / 100
	if half := modulePx / 2; r > half {
		r = half
	}
	return r
}

// fillRect overwrites a w x h rectangle with c. No blending.
func fillRect(img *image.NRGBA, x0, y0, w, h int, c color.NRGBA) {
	for y := y0; y < y0+h; y++ {
		i := img.PixOffset(x0, y)
		for x := 0; x < w; x++ {
			img.Pix[i] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
			i += 4
		}
	}
}

// fillCircle overwrites the disc of radius r centered at (cx, cy),
// including every pixel with dx*dx+dy*dy <= r*r.
func fillCircle(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	for dy := -r; dy <= r; dy++ {
		dx := isqrt(r*r - dy*dy)
		fillRect(img, cx-dx, cy+dy, 2*dx+1, 1, c)
	}
}

func isqrt(n int) int {
	x := int(math.Sqrt(float64(n)))
	for x > 0 && x*x > n {
		x--
	}
	for (x+1)*(x+1) <= n {
		x++
	}
	return x
}
