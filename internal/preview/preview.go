// Package preview renders the live preview raster and memoizes it on a
// signature of all inputs, so identical parameter snapshots never
// trigger a re-render.
package preview

import (
	"fmt"
	"image"
	"math"
	"os"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/cristianadrielbraun/qroverlay/internal/compose"
	"github.com/cristianadrielbraun/qroverlay/internal/qr"
)

// maxEdge bounds the preview raster. Base images larger than this are
// fitted down; the QR and its offsets scale by the same factor.
const maxEdge = 1200

// Input is the full parameter snapshot a preview depends on.
type Input struct {
	Bulk     bool
	Payload  string // single payload; ignored in bulk mode
	BulkText string // multi-line payload list; first non-blank line previews
	BasePath string // optional base image for an overlay preview

	Render           qr.Params // Payload field is ignored
	Anchor           compose.Anchor
	OffsetX, OffsetY int
}

// Cache holds the last preview keyed by its input signature.
type Cache struct {
	key string
	img *image.NRGBA
	err error
}

// Render returns the preview for in, recomputing only when the input
// signature differs from the cached one. Errors are cached the same
// way as rasters.
func (c *Cache) Render(in Input) (*image.NRGBA, error) {
	key := Signature(in)
	if key == c.key {
		return c.img, c.err
	}
	c.key = key
	c.img, c.err = render(in)
	return c.img, c.err
}

// Signature derives the memoization key: a pure function of every
// parameter the preview depends on, plus the base image's mtime so
// replacing the file on disk invalidates the cache.
func Signature(in Input) string {
	srcTag := "qr-only"
	if in.Bulk {
		srcTag = "bulk"
	} else if in.BasePath != "" {
		srcTag = in.BasePath
	}

	var mtime int64
	if in.BasePath != "" {
		if fi, err := os.Stat(in.BasePath); err == nil {
			mtime = fi.ModTime().Unix()
		}
	}

	text := in.Payload
	if in.Bulk {
		text = in.BulkText
	}

	m := in.Render.ModuleColor
	bg := "none"
	if in.Render.Background != nil {
		bg = fmt.Sprintf("%d,%d,%d", in.Render.Background.R, in.Render.Background.G, in.Render.Background.B)
	}

	return fmt.Sprintf("%s|%d|%s|%t|%dpx|%s|%d,%d|%d%%|mod=%d,%d,%d|bg=%s|round=%d",
		srcTag, mtime, text, in.Bulk, in.Render.SizePx, in.Anchor,
		in.OffsetX, in.OffsetY, in.Render.AlphaPercent,
		m.R, m.G, m.B, bg, in.Render.RoundingPercent)
}

// render draws the preview synchronously. Bulk mode previews the first
// non-blank line as a standalone code; single mode previews the overlay
// when a base image is set, otherwise the standalone code.
func render(in Input) (*image.NRGBA, error) {
	payload := strings.TrimSpace(in.Payload)
	if in.Bulk {
		payload = firstNonEmptyLine(in.BulkText)
	}
	if payload == "" {
		return nil, qr.ErrEmptyPayload
	}

	p := in.Render
	p.Payload = payload

	if in.Bulk || in.BasePath == "" {
		return qr.Render(p)
	}

	src, err := imaging.Open(in.BasePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", in.BasePath, err)
	}
	base := imaging.Fit(src, maxEdge, maxEdge, imaging.Linear)
	dispW, dispH := base.Bounds().Dx(), base.Bounds().Dy()
	scale := float64(dispW) / float64(src.Bounds().Dx())

	if scaled := int(math.Round(float64(p.SizePx) * scale)); scaled >= 1 {
		p.SizePx = scaled
	} else {
		p.SizePx = 1
	}
	qrImg, err := qr.Render(p)
	if err != nil {
		return nil, err
	}

	dx := int(math.Round(float64(in.OffsetX) * scale))
	dy := int(math.Round(float64(in.OffsetY) * scale))
	x, y := compose.Position(in.Anchor, dispW, dispH, qrImg.Bounds().Dx(), qrImg.Bounds().Dy(), dx, dy)
	compose.Overlay(base, qrImg, x, y)
	return base, nil
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}
