// Package imgio persists rendered rasters to disk.
package imgio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// Format is a supported output encoding.
type Format int

const (
	PNG Format = iota
	JPEG
	TIFF
	SVG
)

const jpegQuality = 92

// ErrUnsupported is returned for extensions and format/content
// combinations that cannot be written.
var ErrUnsupported = errors.New("unsupported output format")

// Ext returns the canonical file extension without the dot.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return "jpg"
	case TIFF:
		return "tif"
	case SVG:
		return "svg"
	default:
		return "png"
	}
}

// ParseFormat maps a format name or extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "tif", "tiff":
		return TIFF, nil
	case "svg":
		return SVG, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// FormatForPath infers the output format from the file extension.
func FormatForPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, fmt.Errorf("%w: %q has no extension", ErrUnsupported, path)
	}
	return ParseFormat(ext)
}

// Save writes img to path, choosing the encoding from the extension.
// bg is the flatten color for targets without an alpha channel; nil
// falls back to opaque white.
func Save(img *image.NRGBA, path string, bg *color.NRGBA) error {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	return Write(img, path, f, bg)
}

// Write persists img to path in the given format. PNG and TIFF keep
// the alpha channel; JPEG flattens every pixel against bg first. SVG is
// a vector format and cannot be produced from a raster.
func Write(img *image.NRGBA, path string, f Format, bg *color.NRGBA) error {
	if f == SVG {
		return fmt.Errorf("%w: svg output is only available for standalone codes", ErrUnsupported)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	switch f {
	case PNG:
		err = png.Encode(out, img)
	case TIFF:
		err = tiff.Encode(out, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case JPEG:
		flat := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		if bg != nil {
			flat = color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: 255}
		}
		err = jpeg.Encode(out, Flatten(img, flat), &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.Ext(), err)
	}
	return nil
}

// Flatten composites src over an opaque background color, removing the
// alpha channel. Per channel: out = (src*a + bg*(255-a) + 127) / 255,
// all in integer arithmetic.
func Flatten(src *image.NRGBA, bg color.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si := src.PixOffset(b.Min.X, y)
		di := dst.PixOffset(0, y-b.Min.Y)
		for x := b.Min.X; x < b.Max.X; x++ {
			a := uint32(src.Pix[si+3])
			dst.Pix[di] = uint8((uint32(src.Pix[si])*a + uint32(bg.R)*(255-a) + 127) / 255)
			dst.Pix[di+1] = uint8((uint32(src.Pix[si+1])*a + uint32(bg.G)*(255-a) + 127) / 255)
			dst.Pix[di+2] = uint8((uint32(src.Pix[si+2])*a + uint32(bg.B)*(255-a) + 127) / 255)
			dst.Pix[di+3] = 255
			si += 4
			di += 4
		}
	}
	return dst
}
