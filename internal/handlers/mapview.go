package handlers

import (
	"net/http"

	"travelmap-api/internal/controller"
)

type filterRequest struct {
	Date string `json:"date"`
}

type viewRequest struct {
	Mode controller.Mode `json:"mode"`
}

// HandleScene returns the current scene.
//
//	@Summary		Current scene
//	@Tags			map
//	@Produce		json
//	@Success		200	{object}	controller.Scene
//	@Security		ApiKeyAuth
//	@Router			/scene [get]
func (h *Handler) HandleScene(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.controller.Scene())
}

// HandleSetFilter sets the date filter ("all" or one capture date).
func (h *Handler) HandleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	h.dispatch(w, r, controller.SetDateFilter{Date: req.Date})
}

// HandleToggleRoute shows or hides the chronological route.
func (h *Handler) HandleToggleRoute(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, controller.ToggleRoute{})
}

// HandleSwitchView switches between the personal map and the shared feed.
func (h *Handler) HandleSwitchView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	h.dispatch(w, r, controller.SwitchView{Mode: req.Mode})
}

// HandleWebSocket streams scene updates.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, "Live updates are disabled", http.StatusNotFound)
		return
	}
	h.hub.Serve(h.upgrader, w, r)
}
