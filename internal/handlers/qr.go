package handlers

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cristianadrielbraun/qroverlay/internal/compose"
	"github.com/cristianadrielbraun/qroverlay/internal/imgio"
	"github.com/cristianadrielbraun/qroverlay/internal/jobs"
	"github.com/cristianadrielbraun/qroverlay/internal/preview"
	"github.com/cristianadrielbraun/qroverlay/internal/qr"
)

// Preview renders the live preview for the query parameters and streams
// it as PNG. The render is memoized on a signature of all inputs, so
// repeated requests with unchanged parameters hit the cache.
func (h *Handler) Preview(c *gin.Context) {
	in, err := previewInputFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	img, err := h.preview.Render(in)
	h.mu.Unlock()
	if err != nil {
		// Preview errors are inline messages, never fatal.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("encode preview: %v", err)})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// StartJob launches a save job in the background. While a job is in
// flight further requests are rejected with 409.
func (h *Handler) StartJob(c *gin.Context) {
	req, err := jobRequestFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	id, ok := h.runner.Start(req)
	h.mu.Unlock()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "a job is already running"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": id.String()})
}

// JobResult polls the job runner without blocking. The outcome is
// delivered exactly once; after it has been consumed the runner is
// idle again.
func (h *Handler) JobResult(c *gin.Context) {
	h.mu.Lock()
	out, ok := h.runner.Poll()
	busy := h.runner.Busy()
	h.mu.Unlock()

	if !ok {
		status := "idle"
		if busy {
			status = "busy"
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
		return
	}
	if out.Err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "failed", "error": out.Err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "path": out.Path, "count": out.Count})
}

func previewInputFromQuery(c *gin.Context) (preview.Input, error) {
	params, err := renderParamsFromQuery(c)
	if err != nil {
		return preview.Input{}, err
	}
	anchor, dx, dy, err := placementFromQuery(c)
	if err != nil {
		return preview.Input{}, err
	}

	payload := c.Query("payload")
	if c.Query("normalize") == "true" {
		if payload, err = normalizeHTTPURL(payload); err != nil {
			return preview.Input{}, err
		}
	}

	return preview.Input{
		Bulk:     c.Query("mode") == "bulk",
		Payload:  payload,
		BulkText: c.Query("payloads"),
		BasePath: c.Query("base"),
		Render:   params,
		Anchor:   anchor,
		OffsetX:  dx,
		OffsetY:  dy,
	}, nil
}

func jobRequestFromForm(c *gin.Context) (jobs.Request, error) {
	params, err := renderParamsFromQuery(c)
	if err != nil {
		return jobs.Request{}, err
	}
	anchor, dx, dy, err := placementFromQuery(c)
	if err != nil {
		return jobs.Request{}, err
	}

	var mode jobs.Mode
	switch m := c.PostForm("mode"); m {
	case "overlay":
		mode = jobs.OverlayIntoImage
	case "single":
		mode = jobs.SingleQR
	case "bulk":
		mode = jobs.BulkQR
	default:
		return jobs.Request{}, fmt.Errorf("unknown job mode %q", m)
	}

	format, err := imgio.ParseFormat(defaultStr(c.PostForm("format"), "png"))
	if err != nil {
		return jobs.Request{}, err
	}

	payload := c.PostForm("payload")
	if c.PostForm("normalize") == "true" && mode != jobs.BulkQR {
		if payload, err = normalizeHTTPURL(payload); err != nil {
			return jobs.Request{}, err
		}
	}
	params.Payload = payload

	return jobs.Request{
		Mode:     mode,
		Render:   params,
		BulkText: c.PostForm("payloads"),
		BasePath: c.PostForm("base"),
		OutPath:  c.PostForm("out"),
		OutDir:   c.PostForm("dir"),
		Format:   format,
		Anchor:   anchor,
		OffsetX:  dx,
		OffsetY:  dy,
	}, nil
}

// renderParamsFromQuery reads the styling parameters shared by the
// preview and job endpoints. Values may arrive as query or form
// fields; gin checks both through c.Request.Form after binding.
func renderParamsFromQuery(c *gin.Context) (qr.Params, error) {
	size, err := intField(c, "size", 160)
	if err != nil {
		return qr.Params{}, err
	}
	alpha, err := intField(c, "alpha", 100)
	if err != nil {
		return qr.Params{}, err
	}
	rounding, err := intField(c, "rounding", 0)
	if err != nil {
		return qr.Params{}, err
	}
	if alpha < 0 || alpha > 100 {
		return qr.Params{}, fmt.Errorf("alpha must be between 0 and 100")
	}
	if rounding < 0 || rounding > 50 {
		return qr.Params{}, fmt.Errorf("rounding must be between 0 and 50")
	}

	module := parseColorParam(field(c, "fg"), color.NRGBA{A: 255})

	var background *color.NRGBA
	if bg := field(c, "bg"); bg != "" && !strings.EqualFold(bg, "transparent") {
		v := parseColorParam(bg, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		background = &v
	}

	return qr.Params{
		SizePx:          size,
		ModuleColor:     module,
		Background:      background,
		AlphaPercent:    alpha,
		RoundingPercent: rounding,
	}, nil
}

func placementFromQuery(c *gin.Context) (compose.Anchor, int, int, error) {
	anchor, err := compose.ParseAnchor(defaultStr(field(c, "anchor"), "se"))
	if err != nil {
		return 0, 0, 0, err
	}
	dx, err := intField(c, "dx", 10)
	if err != nil {
		return 0, 0, 0, err
	}
	dy, err := intField(c, "dy", 10)
	if err != nil {
		return 0, 0, 0, err
	}
	return anchor, dx, dy, nil
}

// field reads key from the query string or, for POSTs, the form body.
func field(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.PostForm(key)
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intField(c *gin.Context, key string, def int) (int, error) {
	v := field(c, key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// parseColorParam parses a hex color like "#1a2b3c" (the # is
// optional), falling back to defaultColor on anything malformed.
func parseColorParam(param string, defaultColor color.NRGBA) color.NRGBA {
	if param == "" {
		return defaultColor
	}
	param = strings.TrimPrefix(param, "#")
	if len(param) != 6 {
		return defaultColor
	}
	r, err1 := strconv.ParseUint(param[0:2], 16, 8)
	g, err2 := strconv.ParseUint(param[2:4], 16, 8)
	b, err3 := strconv.ParseUint(param[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return defaultColor
	}
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}

// normalizeHTTPURL validates and normalizes a URL payload. It ensures
// an http/https scheme, a non-empty hostname, and returns a cleaned
// absolute URL.
func normalizeHTTPURL(s string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", fmt.Errorf("payload is required")
	}
	if !strings.Contains(v, "://") {
		v = "https://" + v
	}
	u, err := url.ParseRequestURI(v)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("only http and https URLs are supported")
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL must include a valid host")
	}
	if len(v) > 4096 {
		return "", fmt.Errorf("URL is too long")
	}
	return u.String(), nil
}
