package mapview

import (
	"fmt"
	"slices"
	"strconv"

	"travelmap-api/internal/errors"
	"travelmap-api/internal/models"
)

// Marker is one clickable point on a layer.
type Marker struct {
	Handle    string             `json:"handle"`
	RecordID  string             `json:"recordId"`
	Position  models.Coordinates `json:"position"`
	Title     string             `json:"title"`
	Thumbnail string             `json:"thumbnail,omitempty"`
}

// Route is the drawn line. Points are in visiting order.
type Route struct {
	Points  []models.Coordinates `json:"points"`
	Records []int64              `json:"records"`
}

// Map is the rendered state of the map. It is not safe for concurrent use;
// the controller serializes access.
type Map struct {
	table    *MarkerTable
	personal []Marker
	shared   []Marker
	layer    Layer
	filter   string
	route    *Route // nil while hidden
	viewport Viewport
	popup    string
}

func New() *Map {
	return &Map{
		table:    NewMarkerTable(),
		layer:    LayerPersonal,
		filter:   AllDates,
		viewport: defaultViewport(),
	}
}

func (m *Map) Filter() string      { return m.filter }
func (m *Map) Viewport() Viewport  { return m.viewport }
func (m *Map) Popup() string       { return m.popup }
func (m *Map) RouteVisible() bool  { return m.route != nil }
func (m *Map) Table() *MarkerTable { return m.table }

// Route returns the drawn line, or nil while the route is hidden.
func (m *Map) Route() *Route { return m.route }

// Markers returns the markers of the active layer.
func (m *Map) Markers() []Marker {
	if m.layer == LayerShared {
		return slices.Clone(m.shared)
	}
	return slices.Clone(m.personal)
}

// RenderPersonal rebuilds the personal layer from the collection under the
// current filter. A filter whose date no longer occurs falls back to
// AllDates. Route state is left alone.
func (m *Map) RenderPersonal(photos []models.PhotoRecord) {
	if m.filter != AllDates && len(Filter(photos, m.filter)) == 0 {
		m.filter = AllDates
	}

	m.table.Reset(LayerPersonal)
	visible := Filter(photos, m.filter)
	m.personal = make([]Marker, 0, len(visible))
	for _, p := range visible {
		id := strconv.FormatInt(p.ID, 10)
		m.personal = append(m.personal, Marker{
			Handle:    m.table.Put(LayerPersonal, id),
			RecordID:  id,
			Position:  p.Coordinates(),
			Title:     p.Description,
			Thumbnail: "/photos/" + id + "/thumbnail",
		})
	}
	m.dropStalePopup()
}

// SetFilter switches the date filter and rebuilds the personal markers.
// date must be AllDates or a capture date present in photos.
func (m *Map) SetFilter(date string, photos []models.PhotoRecord) error {
	if !slices.Contains(DateFilters(photos), date) {
		return fmt.Errorf("%w: no photos taken on %q", errors.ErrInvalidInput, date)
	}
	m.filter = date
	m.RenderPersonal(photos)
	return nil
}

// ToggleRoute hides a visible route, or draws the route through the filtered
// records in chronological order and fits the viewport to it. Drawing needs
// at least two filtered records.
func (m *Map) ToggleRoute(photos []models.PhotoRecord) error {
	if m.route != nil {
		m.route = nil
		return nil
	}

	filtered := Filter(photos, m.filter)
	if len(filtered) < 2 {
		return errors.ErrRouteTooShort
	}

	route := &Route{}
	for _, p := range ChronologicalOrder(filtered) {
		route.Points = append(route.Points, p.Coordinates())
		route.Records = append(route.Records, p.ID)
	}
	m.route = route
	m.viewport, _ = fitted(route.Points)
	return nil
}

// RenderShared rebuilds the shared layer from the feed.
func (m *Map) RenderShared(feed []models.SharedPhotoRecord) {
	m.table.Reset(LayerShared)
	m.shared = make([]Marker, 0, len(feed))
	for _, r := range feed {
		m.shared = append(m.shared, Marker{
			Handle:   m.table.Put(LayerShared, r.ID),
			RecordID: r.ID,
			Position: r.Coordinates(),
			Title:    r.Description,
		})
	}
	m.dropStalePopup()
}

func (m *Map) dropStalePopup() {
	if _, _, ok := m.table.Lookup(m.popup); !ok {
		m.popup = ""
	}
}

// ShowLayer makes layer the active one. Entering the shared layer fits the
// viewport to its markers when there are any.
func (m *Map) ShowLayer(layer Layer) {
	m.layer = layer
	m.popup = ""
	if layer != LayerShared {
		return
	}

	points := make([]models.Coordinates, 0, len(m.shared))
	for _, mk := range m.shared {
		points = append(points, mk.Position)
	}
	if vp, ok := fitted(points); ok {
		m.viewport = vp
	}
}

// Focus centres the map on c at FocusZoom and opens the popup of handle.
func (m *Map) Focus(c models.Coordinates, handle string) {
	m.viewport = focused(c)
	m.popup = handle
}

// ClearPersonal drops every personal marker and handle and hides the route.
func (m *Map) ClearPersonal() {
	m.table.Reset(LayerPersonal)
	m.personal = nil
	m.route = nil
	m.filter = AllDates
	if m.layer == LayerPersonal {
		m.popup = ""
	}
}
