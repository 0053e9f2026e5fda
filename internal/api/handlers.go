package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
	"github.com/ironsheep/gasket-measure-mcp/internal/outline"
	"github.com/ironsheep/gasket-measure-mcp/internal/pipeline"
)

// envelopeSlack is the allowance for multipart boundaries and JSON framing on top of
// the image size limit.
const envelopeSlack = 64 << 10

// errTooLarge marks uploads over the size limit.
var errTooLarge = errors.New("image too large")

// Handler serves the scan endpoints.
type Handler struct {
	pipeline  *pipeline.Pipeline
	pool      *WorkerPool
	maxUpload int64
	debug     bool
}

// NewHandler wires the pipeline and pool into HTTP handlers.
func NewHandler(p *pipeline.Pipeline, pool *WorkerPool, cfg Config) *Handler {
	return &Handler{
		pipeline:  p,
		pool:      pool,
		maxUpload: cfg.MaxUploadBytes,
		debug:     cfg.Debug(),
	}
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// scanRequest is the JSON body form. Image is base64; data URLs are not accepted.
type scanRequest struct {
	Image         string           `json:"image"`
	ContourPoints []geometry.Point `json:"contour_points"`
}

// DetectCard handles POST /api/v1/scan/detect-card.
func (h *Handler) DetectCard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := h.readScanRequest(w, r)
	if !ok {
		return
	}

	var result pipeline.Detection
	if err := h.pool.Do(r.Context(), func() { result = h.pipeline.DetectCard(req.data) }); err != nil {
		sendPoolError(w, err)
		return
	}
	h.logTiming("detect-card", start)
	respondJSON(w, result, http.StatusOK)
}

// Process handles POST /api/v1/scan/process.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := h.readScanRequest(w, r)
	if !ok {
		return
	}

	var (
		result *pipeline.Result
		err    error
	)
	if poolErr := h.pool.Do(r.Context(), func() { result, err = h.pipeline.Process(req.data) }); poolErr != nil {
		sendPoolError(w, poolErr)
		return
	}
	if err != nil {
		sendPipelineError(w, err)
		return
	}
	h.logTiming("process", start)
	respondJSON(w, result, http.StatusOK)
}

// Overlay handles POST /api/v1/scan/overlay and answers with a PNG.
//
// The outline comes from the "contour_points" JSON field, or from a form field of
// the same name holding a JSON array for multipart uploads.
func (h *Handler) Overlay(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := h.readScanRequest(w, r)
	if !ok {
		return
	}
	if len(req.points) == 0 {
		sendErrorResponse(w, "invalid_request", "contour_points is required", "", http.StatusBadRequest)
		return
	}

	var (
		png []byte
		err error
	)
	if poolErr := h.pool.Do(r.Context(), func() { png, err = h.pipeline.RenderOverlay(req.data, req.points) }); poolErr != nil {
		sendPoolError(w, poolErr)
		return
	}
	if err != nil {
		sendPipelineError(w, err)
		return
	}
	h.logTiming("overlay", start)

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Printf("Failed to write overlay: %v", err)
	}
}

// dxfRequest is the body of POST /api/v1/scan/dxf.
type dxfRequest struct {
	ContourPoints []geometry.Point `json:"contour_points"`
	WidthMM       float64          `json:"width_mm"`
	HeightMM      float64          `json:"height_mm"`
}

// DXF handles POST /api/v1/scan/dxf and answers with the drawing as an attachment.
func (h *Handler) DXF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var req dxfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendErrorResponse(w, "too_large", "Request body too large", "", http.StatusRequestEntityTooLarge)
			return
		}
		sendErrorResponse(w, "invalid_request", "Invalid JSON body", err.Error(), http.StatusBadRequest)
		return
	}

	dxf, err := outline.EncodeDXF(req.ContourPoints, req.WidthMM, req.HeightMM)
	if err != nil {
		sendErrorResponse(w, "invalid_outline", "Outline cannot be exported", err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/dxf")
	w.Header().Set("Content-Disposition", `attachment; filename="joint.dxf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(dxf); err != nil {
		log.Printf("Failed to write dxf: %v", err)
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Metrics handles GET /metrics.
func (h *Handler) Metrics(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, h.pool.Metrics(), http.StatusOK)
}

// scanInput is a decoded upload.
type scanInput struct {
	data   []byte
	points []geometry.Point
}

// readScanRequest extracts the image (and optional outline) from r, writing the
// error response itself when it returns false.
func (h *Handler) readScanRequest(w http.ResponseWriter, r *http.Request) (scanInput, bool) {
	in, err := h.parseScanRequest(w, r)
	if err == nil {
		if len(in.data) == 0 {
			sendErrorResponse(w, "invalid_request", "No image in request", "", http.StatusBadRequest)
			return in, false
		}
		return in, true
	}

	var tooLarge *http.MaxBytesError
	if errors.Is(err, errTooLarge) || errors.As(err, &tooLarge) {
		sendErrorResponse(w, "too_large", fmt.Sprintf("Image too large (max %d bytes)", h.maxUpload), "", http.StatusRequestEntityTooLarge)
		return in, false
	}
	sendErrorResponse(w, "invalid_request", "Could not read image from request", err.Error(), http.StatusBadRequest)
	return in, false
}

func (h *Handler) parseScanRequest(w http.ResponseWriter, r *http.Request) (scanInput, error) {
	var in scanInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload*4/3+envelopeSlack)
		var req scanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return in, err
		}
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return in, fmt.Errorf("invalid base64 image: %w", err)
		}
		in.data, in.points = data, req.ContourPoints

	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+envelopeSlack)
		if err := r.ParseMultipartForm(h.maxUpload + envelopeSlack); err != nil {
			return in, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return in, err
		}
		defer file.Close()
		if in.data, err = io.ReadAll(file); err != nil {
			return in, err
		}
		if raw := r.FormValue("contour_points"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &in.points); err != nil {
				return in, fmt.Errorf("invalid contour_points: %w", err)
			}
		}

	default:
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return in, err
		}
		in.data = data
	}

	if int64(len(in.data)) > h.maxUpload {
		return in, errTooLarge
	}
	return in, nil
}

func (h *Handler) logTiming(route string, start time.Time) {
	if h.debug {
		log.Printf("[DEBUG] %s took %v", route, time.Since(start))
	}
}

func sendPoolError(w http.ResponseWriter, err error) {
	sendErrorResponse(w, "busy", "No worker available, retry later", err.Error(), http.StatusServiceUnavailable)
}

func sendPipelineError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrDecode) {
		sendErrorResponse(w, "invalid_image", "Image could not be decoded", err.Error(), http.StatusUnprocessableEntity)
		return
	}
	sendErrorResponse(w, "processing_error", "Processing failed", err.Error(), http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func sendErrorResponse(w http.ResponseWriter, code, message, details string, status int) {
	respondJSON(w, ErrorResponse{Code: code, Message: message, Details: details}, status)
}
