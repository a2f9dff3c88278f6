package imgio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cristianadrielbraun/qroverlay/internal/qr"
)

// svgQuietZone mirrors the raster renderer's quiet zone, in modules.
const svgQuietZone = 4

// EncodeSVG writes a vector rendition of the symbol. Modules become
// rect elements; corner rounding maps onto the rx attribute, so the
// output matches the raster renderer without any rasterization step.
func EncodeSVG(w io.Writer, mat *qr.Matrix, p qr.Params) error {
	size := p.SizePx
	if size <= 0 {
		return qr.ErrInvalidSize
	}
	if size > qr.MaxSizePx {
		size = qr.MaxSizePx
	}
	total := mat.Width() + 2*svgQuietZone
	module := float64(size) / float64(total)

	rounding := p.RoundingPercent
	if rounding < 0 {
		rounding = 0
	}
	if rounding > 50 {
		rounding = 50
	}
	rx := module * float64(rounding) / 100

	opacity := float64(qr.Alpha8(p.AlphaPercent)) / 255

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`,
		size, size, size, size)

	if p.Background != nil {
		fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="rgb(%d,%d,%d)" fill-opacity="%.3f"/>`,
			size, size, p.Background.R, p.Background.G, p.Background.B, opacity)
	}

	fill := fmt.Sprintf("rgb(%d,%d,%d)", p.ModuleColor.R, p.ModuleColor.G, p.ModuleColor.B)
	fmt.Fprintf(&b, `<g fill="%s" fill-opacity="%.3f">`, fill, opacity)
	for y := 0; y < mat.Width(); y++ {
		for x := 0; x < mat.Width(); x++ {
			if !mat.Dark(x, y) {
				continue
			}
			px := float64(x+svgQuietZone) * module
			py := float64(y+svgQuietZone) * module
			if rx > 0 {
				fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.2f"/>`,
					px, py, module, module, rx)
			} else {
				fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`,
					px, py, module, module)
			}
		}
	}
	b.WriteString(`</g></svg>`)

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveSVG writes a vector rendition of the symbol to path.
func SaveSVG(path string, mat *qr.Matrix, p qr.Params) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	if err := EncodeSVG(out, mat, p); err != nil {
		return fmt.Errorf("encode svg: %w", err)
	}
	return nil
}
