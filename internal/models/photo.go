package models

import "time"

// UnknownDate is the capture date of photos whose metadata carries no timestamp.
const UnknownDate = "unknown"

// DateLayout is the calendar-date format used for CaptureDate.
const DateLayout = "2006-01-02"

type Coordinates struct {
	Lat float64 `firestore:"lat" json:"lat"`
	Lng float64 `firestore:"lng" json:"lng"`
}

// PhotoRecord is a geocoded photo in the personal collection.
type PhotoRecord struct {
	ID          int64     `firestore:"id" db:"id" json:"id"`
	Latitude    float64   `firestore:"latitude" db:"latitude" json:"latitude"`
	Longitude   float64   `firestore:"longitude" db:"longitude" json:"longitude"`
	CaptureDate string    `firestore:"captureDate" db:"capture_date" json:"captureDate"` // "2006-01-02" or UnknownDate
	ImageData   string    `firestore:"imageData" db:"image_data" json:"imageData"`       // data URI or /images/<object>
	Description string    `firestore:"description" db:"description" json:"description"`
	FileName    string    `firestore:"fileName" db:"file_name" json:"fileName"`
	Location    string    `firestore:"location,omitempty" db:"location" json:"location,omitempty"` // Format: "City, Country"
	CreatedAt   time.Time `firestore:"createdAt" db:"created_at" json:"createdAt"`
}

func (p PhotoRecord) Coordinates() Coordinates {
	return Coordinates{Lat: p.Latitude, Lng: p.Longitude}
}

// Upload is a raw file received from the user.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}
