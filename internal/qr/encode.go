package qr

import (
	"errors"
	"fmt"

	"github.com/yeqown/go-qrcode/v2"
)

// ErrEmptyPayload is returned when there is nothing to encode.
var ErrEmptyPayload = errors.New("payload is empty")

// Matrix is an immutable square grid of dark/light QR modules, without
// any quiet zone.
type Matrix struct {
	width int
	dark  []bool
}

// Width returns the symbol edge length in modules.
func (m *Matrix) Width() int { return m.width }

// Dark reports whether the module at (x, y) is dark.
func (m *Matrix) Dark(x, y int) bool { return m.dark[y*m.width+x] }

// matrixGrabber implements qrcode.Writer so the encoded module matrix
// can be captured directly instead of being written out as an image.
type matrixGrabber struct {
	mat *Matrix
}

func (g *matrixGrabber) Write(mat qrcode.Matrix) error {
	w := mat.Width()
	out := &Matrix{width: w, dark: make([]bool, w*w)}
	mat.Iterate(qrcode.IterDirection_ROW, func(x, y int, v qrcode.QRValue) {
		if x < w && y < w && v.IsSet() {
			out.dark[y*w+x] = true
		}
	})
	g.mat = out
	return nil
}

func (g *matrixGrabber) Close() error { return nil }

// Encode builds the module matrix for payload. Version and masking are
// selected by the underlying encoder; error correction is fixed at
// level Q.
func Encode(payload string) (*Matrix, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	qrc, err := qrcode.NewWith(payload, qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionQuart))
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var g matrixGrabber
	if err := qrc.Save(&g); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return g.mat, nil
}
