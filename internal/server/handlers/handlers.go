// Package handlers exposes the orchestrator contract over HTTP. Handlers
// only translate between JSON and RequestSpec values; all routing,
// resilience, and failure conversion stays inside the engine.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bizlens/bizlens/internal/core"
	"github.com/bizlens/bizlens/internal/core/engine"
)

// maxBodyBytes bounds inbound request bodies.
const maxBodyBytes = 1 << 20

// Handler carries the dependencies shared by all HTTP handlers.
type Handler struct {
	Orchestrator *engine.Orchestrator

	// DefaultCacheTTL applies when a request omits cache_ttl_seconds.
	DefaultCacheTTL time.Duration

	Version string
	Clock   func() time.Time
}

// requestPayload is the wire form of a single request.
type requestPayload struct {
	Service         string            `json:"service"`
	Path            string            `json:"path"`
	Method          string            `json:"method"`
	Params          map[string]string `json:"params"`
	Body            map[string]any    `json:"body"`
	CacheTTLSeconds *int              `json:"cache_ttl_seconds"`
}

// batchPayload is the wire form of a fan-out request.
type batchPayload struct {
	Requests []requestPayload `json:"requests"`
}

// Request handles POST /v1/request.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	var payload requestPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	spec, err := h.spec(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.Orchestrator.Request(r.Context(), spec))
}

// ParallelRequests handles POST /v1/requests.
func (h *Handler) ParallelRequests(w http.ResponseWriter, r *http.Request) {
	var payload batchPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(payload.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "at least one request is required")
		return
	}

	specs := make([]core.RequestSpec, 0, len(payload.Requests))
	for _, item := range payload.Requests {
		spec, err := h.spec(item)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		specs = append(specs, spec)
	}

	responses := h.Orchestrator.ParallelRequests(r.Context(), specs)
	writeJSON(w, http.StatusOK, map[string]any{"responses": responses})
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Orchestrator.StatusReport())
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"version":   h.Version,
		"timestamp": h.now().Format(time.RFC3339),
	})
}

// VersionInfo handles GET /version.
func (h *Handler) VersionInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
}

func (h *Handler) spec(payload requestPayload) (core.RequestSpec, error) {
	if payload.Service == "" {
		return core.RequestSpec{}, errMissingField("service")
	}
	if payload.Path == "" {
		return core.RequestSpec{}, errMissingField("path")
	}

	ttl := h.DefaultCacheTTL
	if payload.CacheTTLSeconds != nil {
		ttl = time.Duration(*payload.CacheTTLSeconds) * time.Second
	}

	return core.RequestSpec{
		Service:  payload.Service,
		Path:     payload.Path,
		Method:   payload.Method,
		Params:   payload.Params,
		Body:     payload.Body,
		CacheTTL: ttl,
	}, nil
}

func (h *Handler) now() time.Time {
	if h != nil && h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

type fieldError string

func errMissingField(name string) error {
	return fieldError(name)
}

func (e fieldError) Error() string {
	return string(e) + " is required"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
