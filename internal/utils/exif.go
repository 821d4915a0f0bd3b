package utils

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrium/goheif"
	"github.com/rwcarlsen/goexif/exif"

	"travelmap-api/internal/models"
)

// PhotoMetadata is what a photo's embedded EXIF block tells us. Every field
// is optional.
type PhotoMetadata struct {
	Coordinates *models.Coordinates
	TakenAt     time.Time
	Description string
}

func (m *PhotoMetadata) HasLocation() bool {
	return m != nil && m.Coordinates != nil
}

// ExtractData decodes the EXIF block of a JPEG/TIFF image, or of a HEIC/HEIF
// container when mimeType says so. Missing GPS or timestamp tags are not
// errors; an undecodable EXIF block is.
func ExtractData(imageData []byte, mimeType string) (*PhotoMetadata, error) {
	raw := imageData
	if IsHeifLike(mimeType) {
		exifBytes, err := goheif.ExtractExif(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("failed to extract EXIF from HEIF container: %w", err)
		}
		raw = exifBytes
	}

	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF: %w", err)
	}

	meta := &PhotoMetadata{}

	if lat, lng, err := x.LatLong(); err == nil && validCoordinates(lat, lng) {
		meta.Coordinates = &models.Coordinates{Lat: lat, Lng: lng}
	}

	// DateTime prefers DateTimeOriginal and falls back to DateTime
	if dt, err := x.DateTime(); err == nil {
		meta.TakenAt = dt
	}

	if tag, err := x.Get(exif.ImageDescription); err == nil {
		if s, err := tag.StringVal(); err == nil {
			meta.Description = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		}
	}

	return meta, nil
}

func validCoordinates(lat, lng float64) bool {
	if lat != lat || lng != lng { // NaN
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// FormatCaptureDate returns the calendar date of t, or models.UnknownDate for
// the zero time.
func FormatCaptureDate(t time.Time) string {
	if t.IsZero() {
		return models.UnknownDate
	}
	return t.Format(models.DateLayout)
}

// ParseCaptureDate normalizes a timestamp or date to the "2006-01-02" form.
// Supports ISO 8601 (2006-01-02T15:04:05Z), EXIF (2006:01:02 15:04:05) and
// bare dates in either style. models.UnknownDate is passed through.
func ParseCaptureDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, models.UnknownDate) {
		return models.UnknownDate, nil
	}

	var t time.Time
	var err error

	// Try multiple timestamp formats in order of likelihood
	formats := []string{
		models.DateLayout,     // "2006-01-02"
		time.RFC3339,          // "2006-01-02T15:04:05Z07:00" (with timezone)
		"2006:01:02 15:04:05", // EXIF format
		"2006-01-02T15:04:05", // ISO 8601 without timezone
		"2006:01:02",
	}

	for _, format := range formats {
		t, err = time.Parse(format, value)
		if err == nil {
			break
		}
	}

	if err != nil {
		return "", fmt.Errorf("failed to parse capture date %q: %w", value, err)
	}

	return t.Format(models.DateLayout), nil
}
