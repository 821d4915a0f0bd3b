package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "travelmap-api/internal/errors"
)

// HandleImage serves an image stored by the storage encoder, with caching.
//
//	@Summary		Get a stored image
//	@Description	Retrieve a photo uploaded to Cloud Storage by its object path
//	@Tags			images
//	@Produce		jpeg
//	@Param			object	path		string	true	"Object path"
//	@Success		200		{file}		binary
//	@Failure		400		{string}	string	"Bad Request"
//	@Failure		404		{string}	string	"Not Found"
//	@Failure		500		{string}	string	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/images/{object} [get]
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	object := strings.TrimSpace(r.PathValue("object"))

	if object == "" {
		http.Error(w, "Missing object path", http.StatusBadRequest)
		return
	}

	// Security: Prevent path traversal attacks
	if strings.Contains(object, "..") || strings.Contains(object, "\\") || strings.HasPrefix(object, "/") {
		h.logger.Warn("rejected suspicious object path", zap.String("object", object))
		http.Error(w, "Invalid object path", http.StatusBadRequest)
		return
	}

	if len(object) > 512 {
		http.Error(w, "Object path too long", http.StatusBadRequest)
		return
	}

	data, contentType, err := h.imageService.GetObject(r.Context(), object)
	if err != nil {
		h.logger.Warn("failed to get image", zap.String("object", object), zap.Error(err))
		writeImageError(w, err)
		return
	}

	h.logger.Debug("served image", zap.String("object", object), zap.Duration("took", time.Since(start)))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=900, s-maxage=900") // 15 min
	w.Header().Set("CDN-Cache-Control", "public, max-age=86400")         // Vercel edge: 24hr
	w.Write(data)
}

// HandleDownload serves the live download handle as an attachment.
//
//	@Summary		Download selected photo
//	@Tags			images
//	@Produce		jpeg
//	@Param			token	path		string	true	"Download token"
//	@Success		200		{file}		binary
//	@Failure		404		{string}	string	"Unknown or released token"
//	@Security		ApiKeyAuth
//	@Router			/downloads/{token} [get]
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	dl, err := h.controller.Downloads().Resolve(r.PathValue("token"))
	if err != nil {
		http.Error(w, "Download not found", http.StatusNotFound)
		return
	}

	data, contentType, err := h.imageService.GetImage(r.Context(), dl.ImageData)
	if err != nil {
		h.logger.Warn("failed to resolve download", zap.String("token", dl.Token), zap.Error(err))
		writeImageError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func writeImageError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, apperrors.ErrNotFound):
		http.Error(w, "File not found", http.StatusNotFound)
	case stderrors.Is(err, apperrors.ErrInvalidInput):
		http.Error(w, "Unsupported image data", http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
