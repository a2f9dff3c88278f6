// Package jobs executes save operations on a background goroutine and
// reports a single terminal outcome per job.
package jobs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cristianadrielbraun/qroverlay/internal/compose"
	"github.com/cristianadrielbraun/qroverlay/internal/imgio"
	"github.com/cristianadrielbraun/qroverlay/internal/naming"
	"github.com/cristianadrielbraun/qroverlay/internal/qr"
)

// Mode selects which save operation a job performs.
type Mode int

const (
	// OverlayIntoImage renders the QR and composites it onto a base image.
	OverlayIntoImage Mode = iota
	// SingleQR writes one standalone QR image.
	SingleQR
	// BulkQR writes one standalone QR image per payload line.
	BulkQR
)

var (
	// ErrNoBasePath is returned by overlay jobs without a source image.
	ErrNoBasePath = errors.New("no source image selected")

	// ErrNoPayloads is returned by bulk jobs whose list has no
	// non-blank lines.
	ErrNoPayloads = errors.New("bulk list has no payloads")
)

// Request carries everything a job needs. It is captured by value when
// the job starts, so later parameter edits cannot affect a running job.
type Request struct {
	Mode   Mode
	Render qr.Params // Payload is the single payload for overlay/single modes

	// BulkText is the multi-line payload list for BulkQR. Lines are
	// trimmed and blank lines dropped.
	BulkText string

	BasePath string // overlay source image
	OutPath  string // output file for overlay/single; derived when empty
	OutDir   string // output directory for bulk; derived when empty

	Format imgio.Format

	Anchor           compose.Anchor
	OffsetX, OffsetY int
}

// Outcome is the single terminal result of a job: either a saved path
// (with the number of files written) or an error. Bulk jobs report the
// last file written.
type Outcome struct {
	Path  string
	Count int
	Err   error
}

// Runner owns at most one in-flight job. The busy flag and the result
// channel are only touched from the caller's context; the worker
// goroutine communicates exclusively through the one-slot channel.
type Runner struct {
	log     *logrus.Logger
	busy    bool
	results chan Outcome
}

func NewRunner(log *logrus.Logger) *Runner {
	return &Runner{log: log}
}

// Busy reports whether a job is in flight. It stays true until the
// outcome has been consumed through Poll.
func (r *Runner) Busy() bool { return r.busy }

// Start launches req on a background goroutine. While a job is in
// flight Start is a no-op and returns false.
func (r *Runner) Start(req Request) (uuid.UUID, bool) {
	if r.busy {
		return uuid.Nil, false
	}
	r.busy = true
	r.results = make(chan Outcome, 1)
	id := uuid.New()

	log := r.log.WithField("job", id)
	log.WithField("mode", req.Mode).Info("job started")

	results := r.results
	go func() {
		out := run(req)
		if out.Err != nil {
			log.WithError(out.Err).Error("job failed")
		} else {
			log.WithFields(logrus.Fields{"path": out.Path, "count": out.Count}).Info("job finished")
		}
		results <- out
	}()
	return id, true
}

// Poll performs a non-blocking receive on the result channel.
// Consuming the outcome clears the busy flag.
func (r *Runner) Poll() (Outcome, bool) {
	if r.results == nil {
		return Outcome{}, false
	}
	select {
	case out := <-r.results:
		r.busy = false
		r.results = nil
		return out, true
	default:
		return Outcome{}, false
	}
}

func run(req Request) Outcome {
	switch req.Mode {
	case OverlayIntoImage:
		return runOverlay(req)
	case SingleQR:
		return runSingle(req)
	case BulkQR:
		return runBulk(req)
	}
	return Outcome{Err: fmt.Errorf("unknown job mode %d", req.Mode)}
}

func runOverlay(req Request) Outcome {
	p := req.Render
	p.Payload = strings.TrimSpace(p.Payload)
	if p.Payload == "" {
		return Outcome{Err: qr.ErrEmptyPayload}
	}
	if req.BasePath == "" {
		return Outcome{Err: ErrNoBasePath}
	}

	src, err := imaging.Open(req.BasePath)
	if err != nil {
		return Outcome{Err: fmt.Errorf("open %s: %w", req.BasePath, err)}
	}
	base := imaging.Clone(src)

	qrImg, err := qr.Render(p)
	if err != nil {
		return Outcome{Err: err}
	}

	bw, bh := base.Bounds().Dx(), base.Bounds().Dy()
	qw, qh := qrImg.Bounds().Dx(), qrImg.Bounds().Dy()
	x, y := compose.Position(req.Anchor, bw, bh, qw, qh, req.OffsetX, req.OffsetY)
	compose.Overlay(base, qrImg, x, y)

	outPath := req.OutPath
	if outPath == "" {
		outPath = naming.DefaultOverlayPath(req.BasePath)
	}
	if err := imgio.Save(base, outPath, p.Background); err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Path: outPath, Count: 1}
}

func runSingle(req Request) Outcome {
	p := req.Render
	p.Payload = strings.TrimSpace(p.Payload)
	if p.Payload == "" {
		return Outcome{Err: qr.ErrEmptyPayload}
	}
	outPath := req.OutPath
	if outPath == "" {
		outPath = naming.DefaultQRPath
	}
	if err := writeOne(p, outPath, req.Format); err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Path: outPath, Count: 1}
}

func runBulk(req Request) Outcome {
	payloads := SplitPayloads(req.BulkText)
	if len(payloads) == 0 {
		return Outcome{Err: ErrNoPayloads}
	}

	dir := req.OutDir
	if dir == "" {
		dir = naming.DefaultBulkDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Outcome{Err: fmt.Errorf("create directory %s: %w", dir, err)}
	}

	var last string
	for i, payload := range payloads {
		p := req.Render
		p.Payload = payload
		path := filepath.Join(dir, naming.Filename(i+1, payload, req.Format.Ext()))
		if err := writeOne(p, path, req.Format); err != nil {
			return Outcome{Err: fmt.Errorf("payload %d: %w", i+1, err)}
		}
		last = path
	}
	return Outcome{Path: last, Count: len(payloads)}
}

// writeOne renders and persists a single standalone code.
func writeOne(p qr.Params, path string, f imgio.Format) error {
	if f == imgio.SVG {
		mat, err := qr.Encode(p.Payload)
		if err != nil {
			return err
		}
		return imgio.SaveSVG(path, mat, p)
	}
	img, err := qr.Render(p)
	if err != nil {
		return err
	}
	return imgio.Write(img, path, f, p.Background)
}

// SplitPayloads trims every line of text and drops the blank ones,
// preserving input order.
func SplitPayloads(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}
