// Package mapview holds the rendered state of the map: which markers are on
// which layer, the active date filter, the route line and the viewport.
package mapview

import (
	"slices"
	"strings"

	"travelmap-api/internal/models"
)

// AllDates is the filter value that shows every record.
const AllDates = "all"

// DateFilters returns the filter options for a collection: AllDates, then
// each distinct capture date ascending, with models.UnknownDate last.
func DateFilters(photos []models.PhotoRecord) []string {
	seen := map[string]bool{}
	var dates []string
	for _, p := range photos {
		if !seen[p.CaptureDate] {
			seen[p.CaptureDate] = true
			dates = append(dates, p.CaptureDate)
		}
	}
	slices.SortFunc(dates, compareDates)
	return append([]string{AllDates}, dates...)
}

// Filter returns the records matching a filter value, in collection order.
func Filter(photos []models.PhotoRecord, date string) []models.PhotoRecord {
	if date == AllDates || date == "" {
		return photos
	}
	var out []models.PhotoRecord
	for _, p := range photos {
		if p.CaptureDate == date {
			out = append(out, p)
		}
	}
	return out
}

// ChronologicalOrder returns a copy of photos sorted by capture date.
// Records with equal dates keep their relative order; undated records come
// after every dated one.
func ChronologicalOrder(photos []models.PhotoRecord) []models.PhotoRecord {
	ordered := slices.Clone(photos)
	slices.SortStableFunc(ordered, func(a, b models.PhotoRecord) int {
		return compareDates(a.CaptureDate, b.CaptureDate)
	})
	return ordered
}

// compareDates orders "2006-01-02" strings lexically, which is also
// chronological, and puts models.UnknownDate last.
func compareDates(a, b string) int {
	aUnknown, bUnknown := a == models.UnknownDate, b == models.UnknownDate
	switch {
	case aUnknown && bUnknown:
		return 0
	case aUnknown:
		return 1
	case bUnknown:
		return -1
	}
	return strings.Compare(a, b)
}
