package services

import (
	"context"

	"travelmap-api/internal/models"
)

// PhotoStore persists the personal photo collection. It only grows between
// clears; there is no update or delete by id.
type PhotoStore interface {
	// AddAll appends records and returns them with their assigned ids.
	AddAll(ctx context.Context, records []models.PhotoRecord) ([]models.PhotoRecord, error)
	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]models.PhotoRecord, error)
	// Clear irreversibly removes every record.
	Clear(ctx context.Context) error
}

// FeedStore persists the shared feed. Upsert overwrites the whole record.
type FeedStore interface {
	Upsert(ctx context.Context, record models.SharedPhotoRecord) error
	// ListAll returns every shared record, oldest share first.
	ListAll(ctx context.Context) ([]models.SharedPhotoRecord, error)
	// Get returns errors.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*models.SharedPhotoRecord, error)
}
