// Package handlers exposes the registry over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"village-registry-system/pkg/middleware"
	"village-registry-system/pkg/response"
	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/session"
)

// DefaultMaxPhotoBytes caps a multipart resident submission.
const DefaultMaxPhotoBytes = 5 << 20

// FilesPrefix is where WithFiles mounts its handler.
const FilesPrefix = "/files"

type Handler struct {
	residents *session.Residents
	letters   *session.Letters
	log       *zap.Logger

	maxPhotoBytes int64
	health        func(ctx context.Context) error
	files         http.Handler
}

type Option func(*Handler)

func WithMaxPhotoBytes(n int64) Option {
	return func(h *Handler) { h.maxPhotoBytes = n }
}

// WithHealthCheck makes /health report DOWN while check fails.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(h *Handler) { h.health = check }
}

// WithFiles serves stored photos under FilesPrefix without auth, the way a
// public bucket would. A nil handler mounts nothing.
func WithFiles(files http.Handler) Option {
	return func(h *Handler) { h.files = files }
}

func New(residents *session.Residents, letters *session.Letters, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		residents:     residents,
		letters:       letters,
		log:           log,
		maxPhotoBytes: DefaultMaxPhotoBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":  "UP",
		"service": "registry-service",
	}
	status := http.StatusOK
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			health["status"] = "DOWN"
			health["error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	response.JSON(w, status, health)
}

// writeError maps the domain error taxonomy onto HTTP.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := models.IsValidation(err); ok {
		fields := make(map[string]string, len(verr.Fields))
		for f, msg := range verr.Fields {
			fields[string(f)] = msg
		}
		response.Invalid(w, "Validation failed", fields)
		return
	}

	var se *models.StoreError
	switch {
	case errors.Is(err, models.ErrSessionExpired):
		response.Error(w, http.StatusUnauthorized, err.Error(), "")
	case errors.Is(err, models.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, models.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Record not found", err.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		response.Error(w, http.StatusConflict, "Invalid status transition", err.Error())
	case errors.As(err, &se):
		h.log.Error("[ERROR] store failure",
			zap.String("trace_id", middleware.GetTraceID(r)),
			zap.String("op", se.Op),
			zap.Error(se.Err))
		response.Error(w, http.StatusBadGateway, se.Message(), "")
	default:
		h.log.Error("[ERROR] unexpected failure", zap.String("trace_id", middleware.GetTraceID(r)), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
