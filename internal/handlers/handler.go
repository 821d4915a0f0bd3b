package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	gws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"travelmap-api/internal/controller"
	"travelmap-api/internal/errors"
	"travelmap-api/internal/services"
	"travelmap-api/internal/websocket"
)

type Handler struct {
	controller     *controller.Controller
	imageService   *services.ImageService
	hub            *websocket.Hub
	upgrader       gws.Upgrader
	maxUploadBytes int64
	logger         *zap.Logger
}

type Options struct {
	Hub            *websocket.Hub // nil disables /ws
	AllowedOrigins []string
	MaxUploadBytes int64
}

func New(ctrl *controller.Controller, imageService *services.ImageService, logger *zap.Logger, opts Options) *Handler {
	return &Handler{
		controller:     ctrl,
		imageService:   imageService,
		hub:            opts.Hub,
		upgrader:       websocket.Upgrader(opts.AllowedOrigins),
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         logger,
	}
}

// dispatch runs cmd and writes its result. Notices come back with the
// status that matches their cause.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, cmd controller.Command) {
	res, err := h.controller.Dispatch(r.Context(), cmd)
	h.writeJSON(w, statusFor(err), res)
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.IsNotice(err):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// decodeJSON reads a small JSON body into v, answering 400 on failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
