package mapview

import (
	stderrors "errors"
	"slices"
	"strconv"
	"testing"

	"travelmap-api/internal/errors"
	"travelmap-api/internal/models"
)

func photo(id int64, date string, lat, lng float64) models.PhotoRecord {
	return models.PhotoRecord{ID: id, CaptureDate: date, Latitude: lat, Longitude: lng, Description: "photo"}
}

func tripPhotos() []models.PhotoRecord {
	return []models.PhotoRecord{
		photo(1, "2023-10-24", 35.0116, 135.7681),
		photo(2, models.UnknownDate, 34.6937, 135.5023),
		photo(3, "2023-10-20", 35.6895, 139.6917),
		photo(4, "2023-10-24", 34.9671, 135.7727),
		photo(5, "2023-10-20", 35.7148, 139.7967),
	}
}

func recordIDs(photos []models.PhotoRecord) []int64 {
	ids := make([]int64, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	return ids
}

func TestDateFilters(t *testing.T) {
	tests := []struct {
		name   string
		photos []models.PhotoRecord
		want   []string
	}{
		{"empty", nil, []string{AllDates}},
		{"distinct ascending with unknown last", tripPhotos(), []string{AllDates, "2023-10-20", "2023-10-24", models.UnknownDate}},
		{"single date", []models.PhotoRecord{photo(1, "2024-01-01", 0, 0), photo(2, "2024-01-01", 1, 1)}, []string{AllDates, "2024-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateFilters(tt.photos); !slices.Equal(got, tt.want) {
				t.Errorf("DateFilters() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	photos := tripPhotos()

	if got := Filter(photos, AllDates); len(got) != len(photos) {
		t.Errorf("Filter(all) returned %d records, want %d", len(got), len(photos))
	}
	if got := recordIDs(Filter(photos, "2023-10-24")); !slices.Equal(got, []int64{1, 4}) {
		t.Errorf("Filter(2023-10-24) = %v, want [1 4]", got)
	}
	if got := Filter(photos, "1999-01-01"); len(got) != 0 {
		t.Errorf("Filter(absent date) returned %d records", len(got))
	}
}

func TestChronologicalOrderIsStable(t *testing.T) {
	photos := tripPhotos()
	got := recordIDs(ChronologicalOrder(photos))

	want := []int64{3, 5, 1, 4, 2}
	if !slices.Equal(got, want) {
		t.Errorf("ChronologicalOrder() = %v, want %v", got, want)
	}
	if !slices.Equal(recordIDs(photos), []int64{1, 2, 3, 4, 5}) {
		t.Error("ChronologicalOrder() reordered its input")
	}
}

func TestToggleRoute(t *testing.T) {
	photos := tripPhotos()
	m := New()

	if err := m.ToggleRoute(photos); err != nil {
		t.Fatalf("ToggleRoute() unexpected error: %v", err)
	}
	if !m.RouteVisible() {
		t.Fatal("route not visible after first toggle")
	}

	route := m.Route()
	if !slices.Equal(route.Records, []int64{3, 5, 1, 4, 2}) {
		t.Errorf("route visits %v, want chronological order", route.Records)
	}
	for i := 1; i < len(route.Records); i++ {
		if route.Points[i] != photos[route.Records[i]-1].Coordinates() {
			t.Errorf("route point %d does not match record %d", i, route.Records[i])
		}
	}

	vp := m.Viewport()
	if vp.Bounds == nil || vp.Padding != RoutePadding {
		t.Fatalf("viewport = %+v, want bounds with padding %d", vp, RoutePadding)
	}
	if vp.Bounds.SouthWest.Lat != 34.6937 || vp.Bounds.NorthEast.Lng != 139.7967 {
		t.Errorf("bounds = %+v", *vp.Bounds)
	}

	if err := m.ToggleRoute(photos); err != nil {
		t.Fatalf("second ToggleRoute() unexpected error: %v", err)
	}
	if m.RouteVisible() || m.Route() != nil {
		t.Error("route still visible after second toggle")
	}
	if m.Viewport().Bounds != vp.Bounds {
		t.Error("hiding the route changed the viewport")
	}
}

func TestToggleRouteTooShort(t *testing.T) {
	m := New()
	before := m.Viewport()

	err := m.ToggleRoute([]models.PhotoRecord{photo(1, "2023-10-20", 1, 1)})
	if !stderrors.Is(err, errors.ErrRouteTooShort) {
		t.Fatalf("ToggleRoute() error = %v, want ErrRouteTooShort", err)
	}
	if m.RouteVisible() {
		t.Error("route drawn for a single record")
	}
	if m.Viewport().Center != before.Center {
		t.Error("rejected toggle moved the viewport")
	}
}

func TestToggleRouteUsesFilteredRecords(t *testing.T) {
	photos := tripPhotos()
	m := New()

	if err := m.SetFilter(models.UnknownDate, photos); err != nil {
		t.Fatalf("SetFilter() unexpected error: %v", err)
	}
	if err := m.ToggleRoute(photos); !stderrors.Is(err, errors.ErrRouteTooShort) {
		t.Fatalf("ToggleRoute() with one filtered record: error = %v", err)
	}

	if err := m.SetFilter("2023-10-24", photos); err != nil {
		t.Fatalf("SetFilter() unexpected error: %v", err)
	}
	if err := m.ToggleRoute(photos); err != nil {
		t.Fatalf("ToggleRoute() unexpected error: %v", err)
	}
	if got := m.Route().Records; !slices.Equal(got, []int64{1, 4}) {
		t.Errorf("route visits %v, want [1 4]", got)
	}
}

func TestFilterChangesKeepRouteState(t *testing.T) {
	photos := tripPhotos()
	m := New()
	m.RenderPersonal(photos)

	if err := m.ToggleRoute(photos); err != nil {
		t.Fatal(err)
	}
	drawn := m.Route()

	if err := m.SetFilter("2023-10-20", photos); err != nil {
		t.Fatal(err)
	}
	if len(m.Markers()) != 2 {
		t.Errorf("got %d markers after filtering, want 2", len(m.Markers()))
	}
	if m.Route() != drawn {
		t.Error("filter change touched the drawn route")
	}

	if err := m.SetFilter(AllDates, photos); err != nil {
		t.Fatal(err)
	}
	if err := m.ToggleRoute(photos); err != nil {
		t.Fatal(err)
	}
	if m.RouteVisible() {
		t.Error("two toggles with filter changes in between left a route")
	}
}

func TestSetFilterRejectsUnknownValue(t *testing.T) {
	m := New()
	err := m.SetFilter("2001-01-01", tripPhotos())
	if !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("SetFilter() error = %v, want ErrInvalidInput", err)
	}
	if m.Filter() != AllDates {
		t.Errorf("Filter() = %q after rejected change", m.Filter())
	}
}

func TestRenderPersonalMarkers(t *testing.T) {
	m := New()
	m.RenderPersonal(tripPhotos())

	markers := m.Markers()
	if len(markers) != 5 {
		t.Fatalf("got %d markers, want 5", len(markers))
	}
	if markers[0].Handle != "p-1" || markers[0].Thumbnail != "/photos/1/thumbnail" {
		t.Errorf("first marker = %+v", markers[0])
	}

	layer, id, ok := m.Table().Lookup("p-3")
	if !ok || layer != LayerPersonal || id != "3" {
		t.Errorf("Lookup(p-3) = %q, %q, %v", layer, id, ok)
	}
}

func TestRenderPersonalResetsVanishedFilter(t *testing.T) {
	photos := tripPhotos()
	m := New()
	if err := m.SetFilter("2023-10-20", photos); err != nil {
		t.Fatal(err)
	}

	m.RenderPersonal(photos[:2])
	if m.Filter() != AllDates {
		t.Errorf("Filter() = %q, want fallback to %q", m.Filter(), AllDates)
	}
	if len(m.Markers()) != 2 {
		t.Errorf("got %d markers, want 2", len(m.Markers()))
	}
}

func TestClearPersonalDropsHandles(t *testing.T) {
	photos := tripPhotos()
	m := New()
	m.RenderPersonal(photos)
	m.Focus(photos[0].Coordinates(), "p-1")
	if err := m.ToggleRoute(photos); err != nil {
		t.Fatal(err)
	}

	m.ClearPersonal()

	if n := m.Table().Len(LayerPersonal); n != 0 {
		t.Errorf("%d personal handles survive a clear", n)
	}
	for _, p := range photos {
		if _, ok := m.Table().Handle(LayerPersonal, strconv.FormatInt(p.ID, 10)); ok {
			t.Errorf("marker for record %d still addressable", p.ID)
		}
	}
	if _, _, ok := m.Table().Lookup("p-1"); ok {
		t.Error("Lookup(p-1) resolved after clear")
	}
	if m.RouteVisible() || m.Popup() != "" || len(m.Markers()) != 0 {
		t.Error("clear left route, popup or markers behind")
	}
}

func TestShowSharedLayerFitsMarkers(t *testing.T) {
	m := New()
	before := m.Viewport()

	m.ShowLayer(LayerShared)
	if m.Viewport().Center != before.Center {
		t.Error("entering an empty shared layer moved the viewport")
	}

	m.RenderShared([]models.SharedPhotoRecord{
		{ID: "a", Latitude: 35, Longitude: 139},
		{ID: "b", Latitude: 34, Longitude: 135},
	})
	m.ShowLayer(LayerPersonal)
	m.ShowLayer(LayerShared)

	vp := m.Viewport()
	if vp.Bounds == nil || vp.Padding != RoutePadding {
		t.Fatalf("viewport = %+v, want fitted bounds", vp)
	}
	want := Bounds{SouthWest: models.Coordinates{Lat: 34, Lng: 135}, NorthEast: models.Coordinates{Lat: 35, Lng: 139}}
	if *vp.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", *vp.Bounds, want)
	}
	if got := m.Markers(); len(got) != 2 || got[0].Handle != "s-a" {
		t.Errorf("shared markers = %+v", got)
	}
}

func TestFocusKeepsPopupAcrossRerender(t *testing.T) {
	feed := []models.SharedPhotoRecord{{ID: "a", Latitude: 35, Longitude: 139}}
	m := New()
	m.RenderShared(feed)
	m.ShowLayer(LayerShared)

	m.Focus(feed[0].Coordinates(), "s-a")
	vp := m.Viewport()
	if vp.Zoom != FocusZoom || vp.Center == nil || *vp.Center != feed[0].Coordinates() {
		t.Errorf("viewport = %+v, want centred at zoom %d", vp, FocusZoom)
	}

	m.RenderShared(feed)
	if m.Popup() != "s-a" {
		t.Errorf("Popup() = %q after re-render, want s-a", m.Popup())
	}

	m.RenderShared(nil)
	if m.Popup() != "" {
		t.Errorf("Popup() = %q, want empty once the marker is gone", m.Popup())
	}
}

func TestFitBounds(t *testing.T) {
	if _, ok := FitBounds(nil); ok {
		t.Error("FitBounds(nil) reported ok")
	}

	b, ok := FitBounds([]models.Coordinates{{Lat: -10, Lng: 20}, {Lat: 5, Lng: -30}, {Lat: 0, Lng: 0}})
	if !ok {
		t.Fatal("FitBounds() not ok")
	}
	want := Bounds{SouthWest: models.Coordinates{Lat: -10, Lng: -30}, NorthEast: models.Coordinates{Lat: 5, Lng: 20}}
	if b != want {
		t.Errorf("FitBounds() = %+v, want %+v", b, want)
	}
}
