package controller

import "travelmap-api/internal/models"

// Command is a user action consumed by Controller.Dispatch.
type Command interface {
	name() string
}

// LoadState reloads both collections from their stores and re-renders.
type LoadState struct{}

// UploadPhotos ingests a batch of files into the personal collection.
type UploadPhotos struct {
	Files []models.Upload
}

// SetDateFilter restricts the personal markers to one capture date, or to
// mapview.AllDates.
type SetDateFilter struct {
	Date string
}

type ToggleRoute struct{}

// SelectPhoto shows a personal photo in the viewer pane.
type SelectPhoto struct {
	ID int64
}

// ClearPhotos removes every personal photo. Nothing happens unless Confirmed.
type ClearPhotos struct {
	Confirmed bool
}

// SharePhoto copies the selected personal photo into the feed.
type SharePhoto struct{}

type SwitchView struct {
	Mode Mode
}

type ToggleLike struct {
	ID string
}

type AddComment struct {
	ID   string
	Text string
}

// SelectFeedItem centres the map on a shared photo and opens its popup.
type SelectFeedItem struct {
	ID string
}

func (LoadState) name() string      { return "load_state" }
func (UploadPhotos) name() string   { return "upload_photos" }
func (SetDateFilter) name() string  { return "set_date_filter" }
func (ToggleRoute) name() string    { return "toggle_route" }
func (SelectPhoto) name() string    { return "select_photo" }
func (ClearPhotos) name() string    { return "clear_photos" }
func (SharePhoto) name() string     { return "share_photo" }
func (SwitchView) name() string     { return "switch_view" }
func (ToggleLike) name() string     { return "toggle_like" }
func (AddComment) name() string     { return "add_comment" }
func (SelectFeedItem) name() string { return "select_feed_item" }
