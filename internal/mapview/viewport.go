package mapview

import "travelmap-api/internal/models"

const (
	// RoutePadding is the pixel margin used whenever the viewport is fitted
	// to a set of points.
	RoutePadding = 50
	// FocusZoom is the close zoom level used when centring on one record.
	FocusZoom = 15
	// DefaultZoom shows the whole of Japan around DefaultCenter.
	DefaultZoom = 5.5
)

// DefaultCenter is the initial map centre.
var DefaultCenter = models.Coordinates{Lat: 36.2048, Lng: 138.2529}

// Bounds is a lat/lng bounding box.
type Bounds struct {
	SouthWest models.Coordinates `json:"southWest"`
	NorthEast models.Coordinates `json:"northEast"`
}

// Viewport tells the client what to show: either a fitted box with padding or
// a centre and zoom.
type Viewport struct {
	Bounds  *Bounds             `json:"bounds,omitempty"`
	Padding int                 `json:"padding,omitempty"`
	Center  *models.Coordinates `json:"center,omitempty"`
	Zoom    float64             `json:"zoom,omitempty"`
}

func defaultViewport() Viewport {
	c := DefaultCenter
	return Viewport{Center: &c, Zoom: DefaultZoom}
}

// FitBounds returns the smallest box holding every point. ok is false when
// there are no points.
func FitBounds(points []models.Coordinates) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}

	b = Bounds{SouthWest: points[0], NorthEast: points[0]}
	for _, p := range points[1:] {
		b.SouthWest.Lat = min(b.SouthWest.Lat, p.Lat)
		b.SouthWest.Lng = min(b.SouthWest.Lng, p.Lng)
		b.NorthEast.Lat = max(b.NorthEast.Lat, p.Lat)
		b.NorthEast.Lng = max(b.NorthEast.Lng, p.Lng)
	}
	return b, true
}

func fitted(points []models.Coordinates) (Viewport, bool) {
	b, ok := FitBounds(points)
	if !ok {
		return Viewport{}, false
	}
	return Viewport{Bounds: &b, Padding: RoutePadding}, true
}

func focused(c models.Coordinates) Viewport {
	return Viewport{Center: &c, Zoom: FocusZoom}
}
