package handlers

import (
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"travelmap-api/internal/controller"
	"travelmap-api/internal/models"
)

// HandleUploadPhotos ingests the multipart "files" field.
//
//	@Summary		Upload photos
//	@Description	Geotag uploaded photos from their EXIF data; files without GPS tags are skipped
//	@Tags			photos
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			files	formData	file				true	"Photos (repeatable)"
//	@Success		200		{object}	controller.Result
//	@Failure		400		{string}	string	"Bad Request"
//	@Failure		409		{object}	controller.Result	"Upload already in progress"
//	@Security		ApiKeyAuth
//	@Router			/photos [post]
func (h *Handler) HandleUploadPhotos(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.logger.Debug("invalid upload", zap.Error(err))
		http.Error(w, "Invalid multipart upload", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	files := make([]models.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}
		files = append(files, models.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	h.dispatch(w, r, controller.UploadPhotos{Files: files})
}

// HandleListPhotos returns the personal collection.
//
//	@Summary		List photos
//	@Tags			photos
//	@Produce		json
//	@Success		200	{array}	models.PhotoRecord
//	@Security		ApiKeyAuth
//	@Router			/photos [get]
func (h *Handler) HandleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos := h.controller.State().Photos
	if photos == nil {
		photos = []models.PhotoRecord{}
	}
	h.writeJSON(w, http.StatusOK, photos)
}

// HandleClearPhotos removes every personal photo. Requires ?confirm=true.
//
//	@Summary		Clear photos
//	@Tags			photos
//	@Produce		json
//	@Param			confirm	query		bool	true	"Must be true"
//	@Success		200		{object}	controller.Result
//	@Failure		409		{object}	controller.Result	"Confirmation required"
//	@Security		ApiKeyAuth
//	@Router			/photos [delete]
func (h *Handler) HandleClearPhotos(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	h.dispatch(w, r, controller.ClearPhotos{Confirmed: confirmed})
}

// HandleSelectPhoto shows a photo in the viewer pane.
func (h *Handler) HandleSelectPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := photoID(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, controller.SelectPhoto{ID: id})
}

// HandlePhotoThumbnail serves a small JPEG of a personal photo for marker
// popups.
func (h *Handler) HandlePhotoThumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := photoID(w, r)
	if !ok {
		return
	}

	photo, found := h.controller.Photo(id)
	if !found {
		http.Error(w, "Photo not found", http.StatusNotFound)
		return
	}

	thumb, err := h.imageService.Thumbnail(r.Context(), strconv.FormatInt(id, 10), photo.ImageData)
	if err != nil {
		h.logger.Warn("thumbnail failed", zap.Int64("photo_id", id), zap.Error(err))
		writeImageError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=900")
	w.Write(thumb)
}

func photoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid photo id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
