package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status    string `json:"status"`
	Photos    int    `json:"photos"`
	Uploading bool   `json:"uploading"`
}

// HandleHealth reports liveness along with the collection size.
//
//	@Summary		Health check
//	@Description	Check if the API is running
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	healthResponse
//	@Router			/health [get]
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	scene := h.controller.Scene()
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Photos:    scene.PhotoCount,
		Uploading: scene.Uploading,
	})
}
