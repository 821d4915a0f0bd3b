package router

import (
	"net/http"

	"travelmap-api/internal/handlers"
)

// Setup configures and returns the HTTP router with all application routes.
func Setup(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Scene
	mux.HandleFunc("GET /scene", h.HandleScene)
	mux.HandleFunc("GET /ws", h.HandleWebSocket)

	// Personal photos
	mux.HandleFunc("POST /photos", h.HandleUploadPhotos)
	mux.HandleFunc("GET /photos", h.HandleListPhotos)
	mux.HandleFunc("DELETE /photos", h.HandleClearPhotos)
	mux.HandleFunc("POST /photos/{id}/select", h.HandleSelectPhoto)
	mux.HandleFunc("GET /photos/{id}/thumbnail", h.HandlePhotoThumbnail)

	// Map controls
	mux.HandleFunc("POST /map/filter", h.HandleSetFilter)
	mux.HandleFunc("POST /map/route", h.HandleToggleRoute)
	mux.HandleFunc("POST /view", h.HandleSwitchView)

	// Shared feed
	mux.HandleFunc("POST /shared", h.HandleSharePhoto)
	mux.HandleFunc("GET /shared", h.HandleListShared)
	mux.HandleFunc("POST /shared/{id}/like", h.HandleToggleLike)
	mux.HandleFunc("POST /shared/{id}/comments", h.HandleAddComment)
	mux.HandleFunc("POST /shared/{id}/select", h.HandleSelectFeedItem)

	// Image bytes
	mux.HandleFunc("GET /images/{object...}", h.HandleImage)
	mux.HandleFunc("GET /downloads/{token}", h.HandleDownload)

	return mux
}
