// Package naming derives output filenames and default paths for saved
// images.
package naming

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultQRPath is the fallback output for a single standalone code.
	DefaultQRPath = "qr.png"

	// DefaultBulkDir is the fallback export directory for bulk mode.
	DefaultBulkDir = "qr_export"

	maxSlugLen = 40
)

// Filename derives a deterministic bulk-export filename:
// qr_<3-digit index>_<slug>_<10-hex hash>.<ext>, with the slug part
// omitted when the payload yields none. The hash is over the raw
// payload, so payloads that slug identically still get distinct names.
func Filename(index int, payload, ext string) string {
	slug := Slug(payload)
	hash := contentHash(payload)
	if slug == "" {
		return fmt.Sprintf("qr_%03d_%s.%s", index, hash, ext)
	}
	return fmt.Sprintf("qr_%03d_%s_%s.%s", index, slug, hash, ext)
}

// DefaultOverlayPath places the overlay output next to the source
// image as out_<stem>.<ext>.
func DefaultOverlayPath(inPath string) string {
	dir := filepath.Dir(inPath)
	base := filepath.Base(inPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".png"
	}
	return filepath.Join(dir, "out_"+stem+ext)
}

// contentHash returns the first five bytes of the payload's SHA-1
// digest in hex. Collision avoidance only, not a security boundary.
func contentHash(payload string) string {
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:5])
}

// Slug builds a filesystem-safe fragment from a URL-like payload: the
// host plus the final path segment, each sanitized, joined with an
// underscore and truncated to 40 characters.
func Slug(rawURL string) string {
	u := strings.TrimRight(strings.TrimSpace(rawURL), "/")

	host := u
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}

	last := u
	if i := strings.LastIndexByte(u, '/'); i >= 0 {
		last = u[i+1:]
	}

	s := sanitize(host)
	if last != "" && last != host {
		if s != "" {
			s += "_"
		}
		s += sanitize(last)
	}
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return strings.Trim(s, "_")
}

// sanitize keeps ASCII alphanumerics, '-' and '_', replaces other
// ASCII with '-', drops non-ASCII, collapses runs of '-' and trims
// leading/trailing '-'.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevDash := false
	for _, ch := range s {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
			if ch == '-' {
				if prevDash {
					continue
				}
				prevDash = true
			} else {
				prevDash = false
			}
			b.WriteRune(ch)
		case ch < 128:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
