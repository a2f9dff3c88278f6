package handlers

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cristianadrielbraun/qroverlay/internal/jobs"
	"github.com/cristianadrielbraun/qroverlay/internal/preview"
)

// Handler holds the engine state shared across HTTP requests: the
// single-job runner and the preview cache. Both are only ever touched
// from the request context, serialized by mu; the background worker
// communicates through the runner's one-slot channel.
type Handler struct {
	mu      sync.Mutex
	log     *logrus.Logger
	runner  *jobs.Runner
	preview preview.Cache
}

// New returns a Handler wired to a fresh job runner.
func New(log *logrus.Logger) *Handler {
	return &Handler{
		log:    log,
		runner: jobs.NewRunner(log),
	}
}
