// Package server exposes pattern decoding and damage detection over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"pattern-reader/internal/damage"
	"pattern-reader/internal/imageio"
	"pattern-reader/internal/pattern"
	"pattern-reader/internal/version"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 50 << 20

// ServiceName is reported by the root endpoint.
const ServiceName = "Memory Mend Detection API"

// Handler serves the HTTP API.
type Handler struct {
	decoder  atomic.Pointer[pattern.Decoder]
	detector *damage.Service
	logger   *slog.Logger
}

// NewHandler creates a Handler. A nil logger discards output.
func NewHandler(decoder *pattern.Decoder, detector *damage.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{detector: detector, logger: logger}
	h.decoder.Store(decoder)
	return h
}

// SetDecoder replaces the decoder used by subsequent requests.
func (h *Handler) SetDecoder(decoder *pattern.Decoder) {
	h.decoder.Store(decoder)
}

// Routes returns the API wrapped in its middleware.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Root)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/decode", h.Decode)
	mux.HandleFunc("/detect", h.Detect)

	var next http.Handler = mux
	next = withBodyLimit(MaxBodyBytes, next)
	next = withRecover(h.logger, next)
	next = withCORS(allowedOrigins, next)
	next = withRequestID(next)
	return next
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(h.logger, w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(h.logger, w)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]any{
		"service":      ServiceName,
		"status":       "running",
		"model_loaded": h.detector.Loaded(),
		"version":      version.Version,
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(h.logger, w)
		return
	}
	status := "healthy"
	if !h.detector.Loaded() {
		status = "degraded"
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]any{
		"status":       status,
		"model_path":   h.detector.ModelPath(),
		"model_loaded": h.detector.Loaded(),
		"version":      version.String(),
	})
}

type decodeRequest struct {
	Image string `json:"image"`
	Debug bool   `json:"debug"`
}

// Decode handles POST /decode.
func (h *Handler) Decode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(h.logger, w)
		return
	}
	log := h.logger.With("request_id", RequestID(r.Context()))

	var req decodeRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	img, err := imageio.DecodePayload(req.Image)
	if err != nil {
		badRequest(h.logger, w, err.Error())
		return
	}

	dec := h.decoder.Load()
	if req.Debug {
		dec = dec.WithDebugImage()
	}
	res, err := dec.Decode(r.Context(), img)
	if err != nil {
		log.Error("decode failed", "error", err)
		writeJSONError(h.logger, w, http.StatusInternalServerError, fmt.Sprintf("Decoding failed: %v", err))
		return
	}
	log.Info("decoded pattern", "id", res.ID, "confidence", res.Confidence, "corners", res.CornersFound)
	writeJSON(h.logger, w, http.StatusOK, res)
}

type detectRequest struct {
	Image               string   `json:"image"`
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
}

// Detect handles POST /detect.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(h.logger, w)
		return
	}
	log := h.logger.With("request_id", RequestID(r.Context()))

	if !h.detector.Loaded() {
		writeJSONError(h.logger, w, http.StatusServiceUnavailable, "Model not loaded. Check server logs for errors.")
		return
	}

	var req detectRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	threshold := damage.DefaultThreshold
	if req.ConfidenceThreshold != nil {
		threshold = *req.ConfidenceThreshold
	}

	// Boxes are reported in the stored pixel layout, without EXIF rotation.
	img, err := imageio.DecodePayload(req.Image, imageio.KeepOrientation())
	if err != nil {
		badRequest(h.logger, w, err.Error())
		return
	}

	resp, err := h.detector.Detect(r.Context(), img, threshold)
	switch {
	case errors.Is(err, damage.ErrModelUnavailable):
		writeJSONError(h.logger, w, http.StatusServiceUnavailable, "Model not loaded. Check server logs for errors.")
		return
	case err != nil:
		log.Error("detection failed", "error", err)
		writeJSONError(h.logger, w, http.StatusInternalServerError, fmt.Sprintf("Detection failed: %v", err))
		return
	}
	writeJSON(h.logger, w, http.StatusOK, resp)
}

// readJSON decodes the request body into v, writing an error response and
// returning false on failure.
func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(h.logger, w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		badRequest(h.logger, w, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}
