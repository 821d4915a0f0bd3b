package models

import "time"

// SharedPhotoRecord is a photo opted into the shared feed. It is a copy of the
// originating PhotoRecord's fields and keeps no link back to it.
type SharedPhotoRecord struct {
	ID            string    `firestore:"id" json:"id"`
	ImageData     string    `firestore:"imageData" json:"imageData"`
	Description   string    `firestore:"description" json:"description"`
	Latitude      float64   `firestore:"latitude" json:"latitude"`
	Longitude     float64   `firestore:"longitude" json:"longitude"`
	LikeCount     int       `firestore:"likeCount" json:"likeCount"`
	LikedByViewer bool      `firestore:"likedByViewer" json:"likedByViewer"`
	Comments      []string  `firestore:"comments" json:"comments"`
	SharedAt      time.Time `firestore:"sharedAt" json:"sharedAt"`
}

func (s SharedPhotoRecord) Coordinates() Coordinates {
	return Coordinates{Lat: s.Latitude, Lng: s.Longitude}
}

// Clone returns a copy whose comment slice is not shared with s.
func (s SharedPhotoRecord) Clone() SharedPhotoRecord {
	c := s
	c.Comments = append([]string(nil), s.Comments...)
	return c
}
