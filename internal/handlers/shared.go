package handlers

import (
	"net/http"

	"travelmap-api/internal/controller"
	"travelmap-api/internal/models"
)

type commentRequest struct {
	Text string `json:"text"`
}

// HandleSharePhoto shares the currently selected personal photo.
//
//	@Summary		Share selected photo
//	@Tags			shared
//	@Produce		json
//	@Success		200	{object}	controller.Result
//	@Failure		409	{object}	controller.Result	"No selection or already shared"
//	@Security		ApiKeyAuth
//	@Router			/shared [post]
func (h *Handler) HandleSharePhoto(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, controller.SharePhoto{})
}

// HandleListShared returns the feed, oldest share first.
//
//	@Summary		List shared photos
//	@Tags			shared
//	@Produce		json
//	@Success		200	{array}	models.SharedPhotoRecord
//	@Security		ApiKeyAuth
//	@Router			/shared [get]
func (h *Handler) HandleListShared(w http.ResponseWriter, r *http.Request) {
	feed := h.controller.State().Feed
	if feed == nil {
		feed = []models.SharedPhotoRecord{}
	}
	h.writeJSON(w, http.StatusOK, feed)
}

func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, controller.ToggleLike{ID: r.PathValue("id")})
}

func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	h.dispatch(w, r, controller.AddComment{ID: r.PathValue("id"), Text: req.Text})
}

func (h *Handler) HandleSelectFeedItem(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, controller.SelectFeedItem{ID: r.PathValue("id")})
}
