package controller

import (
	"travelmap-api/internal/mapview"
	"travelmap-api/internal/models"
)

// Scene is everything the client needs to draw the current screen.
type Scene struct {
	Mode          Mode             `json:"mode"`
	Uploading     bool             `json:"uploading"`
	PhotoCount    int              `json:"photoCount"`
	Filter        string           `json:"filter"`
	FilterOptions []string         `json:"filterOptions"`
	Markers       []mapview.Marker `json:"markers"`
	Route         *mapview.Route   `json:"route,omitempty"`
	Viewport      mapview.Viewport `json:"viewport"`
	Popup         string           `json:"popup,omitempty"`
	Viewer        *Viewer          `json:"viewer,omitempty"`
	PanelOpen     bool             `json:"panelOpen"`
	CanShare      bool             `json:"canShare"`
	Feed          []FeedItem       `json:"feed,omitempty"`
}

// Viewer is the single-photo pane.
type Viewer struct {
	PhotoID     int64             `json:"photoId"`
	Image       string            `json:"image"`
	Description string            `json:"description"`
	CaptureDate string            `json:"captureDate"`
	Location    string            `json:"location,omitempty"`
	Download    *mapview.Download `json:"download,omitempty"`
}

// FeedItem is a shared photo as listed in the feed pane.
type FeedItem struct {
	models.SharedPhotoRecord
	Handle string `json:"handle"`
}

// sceneLocked assembles the scene. c.mu must be held.
func (c *Controller) sceneLocked() Scene {
	s := Scene{
		Mode:          c.state.Mode,
		Uploading:     c.state.Uploading,
		PhotoCount:    len(c.state.Photos),
		Filter:        c.view.Filter(),
		FilterOptions: mapview.DateFilters(c.state.Photos),
		Markers:       c.view.Markers(),
		Route:         c.view.Route(),
		Viewport:      c.view.Viewport(),
		Popup:         c.view.Popup(),
		PanelOpen:     c.state.PanelOpen,
	}

	if c.state.Mode == ModeMain {
		if p, ok := c.selectedLocked(); ok {
			s.CanShare = true
			s.Viewer = &Viewer{
				PhotoID:     p.ID,
				Image:       p.ImageData,
				Description: p.Description,
				CaptureDate: p.CaptureDate,
				Location:    p.Location,
			}
			if dl, ok := c.downloads.Current(); ok {
				s.Viewer.Download = &dl
			}
		}
		return s
	}

	s.Feed = make([]FeedItem, 0, len(c.state.Feed))
	for _, r := range c.state.Feed {
		handle, _ := c.view.Table().Handle(mapview.LayerShared, r.ID)
		s.Feed = append(s.Feed, FeedItem{SharedPhotoRecord: r, Handle: handle})
	}
	return s
}
